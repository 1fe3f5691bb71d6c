package discovery

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"time"
)

const (
	// BroadcastPort is the UDP port the Cube answers identify requests on
	BroadcastPort = 23272

	// SessionPort is the TCP port a discovered Cube accepts sessions on
	SessionPort = 62910

	// DefaultScanTimeout is the default timeout for device discovery
	DefaultScanTimeout = 5 * time.Second

	// replyMinLength is the shortest identify reply that carries all fields
	replyMinLength = 25
)

// identifyRequest is the broadcast payload a Cube answers with its identity.
// The ten asterisks stand in for "any serial number".
var identifyRequest = []byte("eQ3Max*\x00**********I")

// replyMagic opens every identify reply
var replyMagic = []byte("eQ3MaxAp")

// Scanner handles Cube discovery over UDP broadcast
type Scanner struct {
	// Timeout is the maximum time to wait for identify replies
	Timeout time.Duration
}

// NewScanner creates a new broadcast scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForDevices discovers all Cubes on the local network.
// Returns a list of discovered devices or an error.
func (s *Scanner) ScanForDevices() ([]*Device, error) {
	return s.ScanForDevicesWithContext(context.Background())
}

// ScanForDevicesWithContext discovers devices with a custom context.
// The scan always runs for the full timeout; every Cube that answers
// within the window is returned, deduplicated by serial number.
func (s *Scanner) ScanForDevicesWithContext(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("failed to open discovery socket: %w", err)
	}
	defer func() { _ = conn.Close() }()

	broadcast := &net.UDPAddr{IP: net.IPv4bcast, Port: BroadcastPort}
	if _, err := conn.WriteTo(identifyRequest, broadcast); err != nil {
		return nil, fmt.Errorf("failed to send identify broadcast: %w", err)
	}

	deadline, _ := ctx.Deadline()
	_ = conn.SetReadDeadline(deadline)

	devices := make([]*Device, 0)
	seen := make(map[string]bool)
	buf := make([]byte, 128)

	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			// Deadline expiry ends the scan; anything else is a real failure.
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return devices, nil
			}
			if ctx.Err() != nil {
				return devices, nil
			}
			return devices, fmt.Errorf("failed to read identify reply: %w", err)
		}

		device := parseIdentifyReply(buf[:n], addr)
		if device == nil || seen[device.Serial] {
			continue
		}

		seen[device.Serial] = true
		devices = append(devices, device)
	}
}

// WaitForDevice waits for a specific Cube by serial number.
// Returns the device or an error if not found within timeout.
func (s *Scanner) WaitForDevice(serial string) (*Device, error) {
	return s.WaitForDeviceWithContext(context.Background(), serial)
}

// WaitForDeviceWithContext waits for a specific Cube with a custom context
func (s *Scanner) WaitForDeviceWithContext(ctx context.Context, serial string) (*Device, error) {
	devices, err := s.ScanForDevicesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	for _, device := range devices {
		if device.Serial == serial {
			return device, nil
		}
	}
	return nil, fmt.Errorf("cube with serial %s not found within timeout", serial)
}

// parseIdentifyReply converts a raw identify reply to a Device.
// Returns nil if the datagram is not a Cube identify reply.
//
// Reply layout:
//
//	[0:8]   magic "eQ3MaxAp"
//	[8:18]  serial number, ASCII
//	[18:20] request echo ">I"
//	[20:23] RF address
//	[23:25] firmware revision
func parseIdentifyReply(data []byte, addr net.Addr) *Device {
	if len(data) < replyMinLength {
		return nil
	}
	if !bytes.HasPrefix(data, replyMagic) {
		return nil
	}
	if data[19] != 'I' {
		// Reply to a request type we did not send
		return nil
	}

	var ip string
	if udpAddr, ok := addr.(*net.UDPAddr); ok {
		ip = udpAddr.IP.String()
	} else if addr != nil {
		ip, _, _ = net.SplitHostPort(addr.String())
	}
	if ip == "" {
		return nil
	}

	return &Device{
		Serial:       string(data[8:18]),
		IP:           ip,
		Port:         SessionPort,
		RFAddress:    hex.EncodeToString(data[20:23]),
		Firmware:     hex.EncodeToString(data[23:25]),
		DiscoveredAt: time.Now(),
	}
}

// ScanForDevices is a convenience function to scan for devices with a custom timeout
func ScanForDevices(timeout time.Duration) ([]*Device, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForDevices()
}

// QuickScan performs a fast scan with a 2-second timeout
func QuickScan() ([]*Device, error) {
	scanner := NewScanner()
	scanner.Timeout = 2 * time.Second
	return scanner.ScanForDevices()
}

// FindDevice searches for a specific Cube by serial number with default timeout
func FindDevice(serial string) (*Device, error) {
	scanner := NewScanner()
	return scanner.WaitForDevice(serial)
}
