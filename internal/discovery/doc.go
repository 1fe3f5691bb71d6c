// Package discovery locates MAX! Cube gateways on the local network.
//
// The Cube does not advertise itself over mDNS. Instead it answers a
// proprietary UDP broadcast: a 19-byte identify request sent to port 23272
// makes every Cube on the segment reply with its serial number, RF address
// and firmware revision.
//
// # Discovery Process
//
// The discovery process works as follows:
//  1. Opens a UDP socket on an ephemeral port
//  2. Broadcasts the identify request to 255.255.255.255:23272
//  3. Collects unicast identify replies until the timeout expires
//  4. Deduplicates replies by serial number
//
// # Usage Example
//
//	// Discover Cubes with a 5-second timeout
//	devices, err := discovery.ScanForDevices(5 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, device := range devices {
//	    fmt.Printf("Found: %s\n", device)
//	}
//
// # Device Information
//
// Each discovered device includes:
//   - Serial: Cube serial number (e.g., "KEQ0523864")
//   - IP: IPv4 address the reply came from
//   - Port: session port (62910)
//   - RFAddress: the Cube's own radio address, lowercase hex
//   - Firmware: firmware revision as a raw hex string
//
// # Network Requirements
//
// - Devices must be on the same broadcast domain
// - Firewall must allow UDP port 23272 in both directions
//
// # Thread Safety
//
// This package is safe for concurrent use. Multiple discovery sessions can run
// simultaneously without interference.
package discovery
