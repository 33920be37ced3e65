/*
 * Copyright 2025 Bitshield Networks.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package snmp polls interface counters from managed devices and feeds the
// port inventory.
package snmp

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/Bitshield/school-network-monitor/pkg/logger"
	"github.com/Bitshield/school-network-monitor/pkg/models"
)

// ifTable column OIDs.
const (
	oidIfDescr      = ".1.3.6.1.2.1.2.2.1.2"
	oidIfSpeed      = ".1.3.6.1.2.1.2.2.1.5"
	oidIfOperStatus = ".1.3.6.1.2.1.2.2.1.8"
	oidIfInOctets   = ".1.3.6.1.2.1.2.2.1.10"
	oidIfInErrors   = ".1.3.6.1.2.1.2.2.1.14"
	oidIfOutOctets  = ".1.3.6.1.2.1.2.2.1.16"
	oidIfOutErrors  = ".1.3.6.1.2.1.2.2.1.20"
)

// ifOperStatus values from RFC 2863.
const (
	operUp             = 1
	operDown           = 2
	operTesting        = 3
	operLowerLayerDown = 7
)

// InterfaceStats is one row of a device's interface table, keyed by ifIndex.
type InterfaceStats struct {
	Index int
	Name  string
	Stats models.PortStats
}

// Client walks the ifTable of one device per call.
type Client struct {
	port    uint16
	timeout time.Duration
	retries int
	logger  logger.Logger
}

// NewClient builds a client from collector settings.
func NewClient(cfg models.SNMPConfig, log logger.Logger) *Client {
	port := cfg.Port
	if port == 0 {
		port = 161
	}

	timeout := time.Duration(cfg.Timeout)
	if timeout == 0 {
		timeout = 3 * time.Second
	}

	return &Client{
		port:    port,
		timeout: timeout,
		retries: cfg.Retries,
		logger:  log,
	}
}

// FetchInterfaces walks the interface table of host and returns one entry
// per ifIndex.
func (c *Client) FetchInterfaces(ctx context.Context, host, community string) (map[int]*InterfaceStats, error) {
	if community == "" {
		community = "public"
	}

	conn := &gosnmp.GoSNMP{
		Target:    host,
		Port:      c.port,
		Community: community,
		Version:   gosnmp.Version2c,
		Timeout:   c.timeout,
		Retries:   c.retries,
		Context:   ctx,
	}

	if err := conn.Connect(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", host, err)
	}

	defer func() {
		if cerr := conn.Conn.Close(); cerr != nil {
			c.logger.Debug().Err(cerr).Msg("failed to close snmp connection")
		}
	}()

	interfaces := make(map[int]*InterfaceStats)

	columns := []struct {
		oid   string
		apply func(entry *InterfaceStats, pdu gosnmp.SnmpPDU)
	}{
		{oidIfDescr, func(e *InterfaceStats, pdu gosnmp.SnmpPDU) {
			if b, ok := pdu.Value.([]byte); ok {
				e.Name = string(b)
			}
		}},
		{oidIfOperStatus, func(e *InterfaceStats, pdu gosnmp.SnmpPDU) {
			e.Stats.Status = operStatus(int(gosnmp.ToBigInt(pdu.Value).Int64()))
		}},
		{oidIfSpeed, func(e *InterfaceStats, pdu gosnmp.SnmpPDU) {
			// ifSpeed is bits per second.
			e.Stats.SpeedMbps = gosnmp.ToBigInt(pdu.Value).Int64() / 1_000_000
		}},
		{oidIfInOctets, func(e *InterfaceStats, pdu gosnmp.SnmpPDU) {
			e.Stats.RxBytes = gosnmp.ToBigInt(pdu.Value).Uint64()
		}},
		{oidIfOutOctets, func(e *InterfaceStats, pdu gosnmp.SnmpPDU) {
			e.Stats.TxBytes = gosnmp.ToBigInt(pdu.Value).Uint64()
		}},
		{oidIfInErrors, func(e *InterfaceStats, pdu gosnmp.SnmpPDU) {
			e.Stats.RxErrors = gosnmp.ToBigInt(pdu.Value).Uint64()
		}},
		{oidIfOutErrors, func(e *InterfaceStats, pdu gosnmp.SnmpPDU) {
			e.Stats.TxErrors = gosnmp.ToBigInt(pdu.Value).Uint64()
		}},
	}

	for _, col := range columns {
		col := col

		err := conn.BulkWalk(col.oid, func(pdu gosnmp.SnmpPDU) error {
			index, ok := ifIndexFromOID(col.oid, pdu.Name)
			if !ok {
				return nil
			}

			entry, exists := interfaces[index]
			if !exists {
				entry = &InterfaceStats{Index: index, Stats: models.PortStats{Status: models.PortStatusUnknown}}
				interfaces[index] = entry
			}

			col.apply(entry, pdu)

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s on %s: %w", col.oid, host, err)
		}
	}

	return interfaces, nil
}

func operStatus(value int) models.PortStatus {
	switch value {
	case operUp:
		return models.PortStatusUp
	case operDown, operLowerLayerDown:
		return models.PortStatusDown
	case operTesting:
		return models.PortStatusTesting
	default:
		return models.PortStatusUnknown
	}
}

// ifIndexFromOID extracts the row index from a column instance OID.
func ifIndexFromOID(column, instance string) (int, bool) {
	suffix := strings.TrimPrefix(strings.TrimPrefix(instance, "."), strings.TrimPrefix(column, ".")+".")

	index, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}

	return index, true
}
