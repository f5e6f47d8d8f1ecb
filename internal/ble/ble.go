// Package ble implements the sensor.DeviceLink capability on top of
// the host Bluetooth adapter. It is a thin wrapper; everything worth
// testing lives behind the DeviceLink interface.
package ble

import (
	"context"
	"time"

	"codeberg.org/mutker/homemon/internal/errors"
	"codeberg.org/mutker/homemon/internal/logger"
	"codeberg.org/mutker/homemon/internal/sensor"
	"tinygo.org/x/bluetooth"
)

const readBufferSize = 32

type link struct {
	adapter *bluetooth.Adapter
}

// NewLink enables the default Bluetooth adapter and returns a
// DeviceLink backed by it.
func NewLink() (sensor.DeviceLink, error) {
	errFactory := errors.New()

	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, errFactory.Wrap(ErrAdapterInit, err)
	}

	logger.Debug().Msg("Bluetooth adapter enabled")

	return &link{adapter: adapter}, nil
}

func (l *link) Connect(_ context.Context, address string, timeout time.Duration) (sensor.Connection, error) {
	errFactory := errors.New()

	mac, err := bluetooth.ParseMAC(address)
	if err != nil {
		return nil, errFactory.WithData(ErrInvalidAddress, address)
	}

	device, err := l.adapter.Connect(
		bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}},
		bluetooth.ConnectionParams{ConnectionTimeout: bluetooth.NewDuration(timeout)},
	)
	if err != nil {
		return nil, errFactory.Wrap(ErrConnectFailed, err)
	}

	logger.Debug().Str("sensor", address).Msg("Connected")

	return &connection{device: device, address: address}, nil
}

type connection struct {
	device  bluetooth.Device
	address string
}

func (c *connection) ReadCharacteristic(uuid string) ([]byte, error) {
	errFactory := errors.New()

	target, err := bluetooth.ParseUUID(uuid)
	if err != nil {
		return nil, errFactory.WithData(ErrInvalidUUID, uuid)
	}

	services, err := c.device.DiscoverServices(nil)
	if err != nil {
		return nil, errFactory.Wrap(ErrDiscoverFailed, err)
	}

	for _, svc := range services {
		chars, err := svc.DiscoverCharacteristics([]bluetooth.UUID{target})
		if err != nil {
			continue
		}
		for _, char := range chars {
			buf := make([]byte, readBufferSize)
			n, err := char.Read(buf)
			if err != nil {
				return nil, errFactory.Wrap(ErrReadFailed, err)
			}

			return buf[:n], nil
		}
	}

	return nil, errFactory.WithData(ErrCharacteristic, uuid)
}

func (c *connection) Close() error {
	if err := c.device.Disconnect(); err != nil {
		return errors.New().Wrap(ErrDisconnectFailed, err)
	}

	logger.Debug().Str("sensor", c.address).Msg("Disconnected")

	return nil
}
