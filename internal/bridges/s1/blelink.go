package s1

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tinygo.org/x/bluetooth"
)

// bleReadBuffer is sized for the largest characteristic (the 84-byte
// schedule) with headroom.
const bleReadBuffer = 128

// BLELink drives a real appliance over a Bluetooth adapter. It
// satisfies Link; the connection worker is the only goroutine that
// should touch it.
//
// The underlying GATT operations are not context-aware, so ctx is only
// honoured between operations, not mid-transfer.
type BLELink struct {
	mu        sync.Mutex
	adapter   *bluetooth.Adapter
	enabled   bool
	device    bluetooth.Device
	chars     map[Characteristic]bluetooth.DeviceCharacteristic
	connected bool
}

var _ Link = (*BLELink)(nil)

// NewBLELink creates a link on the platform's default adapter.
func NewBLELink() *BLELink {
	return &BLELink{adapter: bluetooth.DefaultAdapter}
}

// Connect establishes the GATT session and discovers the appliance's
// characteristics.
func (l *BLELink) Connect(ctx context.Context, address string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.connected {
		return fmt.Errorf("%w: already connected", ErrConnectionFailed)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if !l.enabled {
		if err := l.adapter.Enable(); err != nil {
			return fmt.Errorf("%w: enabling adapter: %w", ErrConnectionFailed, err)
		}
		l.enabled = true
	}

	mac, err := bluetooth.ParseMAC(address)
	if err != nil {
		return fmt.Errorf("%w: invalid address %q: %w", ErrConnectionFailed, address, err)
	}

	device, err := l.adapter.Connect(
		bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}},
		bluetooth.ConnectionParams{},
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	chars, err := discoverCharacteristics(device)
	if err != nil {
		_ = device.Disconnect()
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	l.device = device
	l.chars = chars
	l.connected = true
	return nil
}

// discoverCharacteristics walks every service and maps the known
// characteristic UUIDs.
func discoverCharacteristics(device bluetooth.Device) (map[Characteristic]bluetooth.DeviceCharacteristic, error) {
	services, err := device.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("discovering services: %w", err)
	}

	chars := make(map[Characteristic]bluetooth.DeviceCharacteristic)
	for _, service := range services {
		discovered, err := service.DiscoverCharacteristics(nil)
		if err != nil {
			return nil, fmt.Errorf("discovering characteristics: %w", err)
		}
		for _, dc := range discovered {
			c := Characteristic(strings.ToLower(dc.UUID().String()))
			if c.Known() {
				chars[c] = dc
			}
		}
	}

	if len(chars) == 0 {
		return nil, fmt.Errorf("no known characteristics found")
	}
	return chars, nil
}

// Disconnect drops the GATT session.
func (l *BLELink) Disconnect(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.connected {
		return nil
	}
	l.connected = false
	l.chars = nil

	if err := l.device.Disconnect(); err != nil {
		return fmt.Errorf("disconnecting: %w", err)
	}
	return nil
}

// Connected reports the session state.
func (l *BLELink) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

// Read fetches a characteristic's current value.
func (l *BLELink) Read(ctx context.Context, c Characteristic) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	dc, err := l.characteristic(ctx, c)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, bleReadBuffer)
	n, err := dc.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", c.Name(), err)
	}
	return buf[:n], nil
}

// Write replaces a characteristic's value.
func (l *BLELink) Write(ctx context.Context, c Characteristic, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	dc, err := l.characteristic(ctx, c)
	if err != nil {
		return err
	}

	if _, err := dc.WriteWithoutResponse(data); err != nil {
		return fmt.Errorf("writing %s: %w", c.Name(), err)
	}
	return nil
}

// characteristic resolves a discovered characteristic. Callers hold mu.
func (l *BLELink) characteristic(ctx context.Context, c Characteristic) (bluetooth.DeviceCharacteristic, error) {
	var zero bluetooth.DeviceCharacteristic

	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if !l.connected {
		return zero, ErrNotConnected
	}
	dc, ok := l.chars[c]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrUnknownCharacteristic, c)
	}
	return dc, nil
}
