package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ivesdebruycker/maxcube/internal/bridge"
	"github.com/ivesdebruycker/maxcube/internal/codec"
	"github.com/ivesdebruycker/maxcube/internal/config"
	"github.com/ivesdebruycker/maxcube/internal/cube"
	"github.com/ivesdebruycker/maxcube/internal/discovery"
	"github.com/ivesdebruycker/maxcube/internal/logging"
	"github.com/ivesdebruycker/maxcube/internal/server"
	"github.com/ivesdebruycker/maxcube/internal/tui"
)

// Common command flags
var (
	cubeHost     string
	cubePort     int
	cmdTimeout   int
	outputFormat string
	scanTimeout  int

	setMode  string
	setUntil string

	brokerURL    string
	mqttUsername string
	mqttPassword string
	mqttClientID string
	topicPrefix  string

	listenHost string
	listenPort int
	logLevel   string
)

func init() {
	// Common flags for cube commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&cubeHost, "host", "", "Cube IP address (skips discovery)")
	rootCmd.PersistentFlags().IntVar(&cubePort, "port", cube.DefaultPort, "Cube TCP port")
	rootCmd.PersistentFlags().IntVar(&cmdTimeout, "timeout", 15, "Command timeout in seconds")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return logging.InitializeFromEnv()
	}

	// Add subcommands directly to root
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(roomsCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(setTempCmd)
	rootCmd.AddCommand(setScheduleCmd)
	rootCmd.AddCommand(nameCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(bridgeCmd)
	rootCmd.AddCommand(serveCmd)
}

// discoverCmd finds cubes on the network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover MAX! Cubes on the network",
	Long: `Discover MAX! Cubes using a UDP broadcast identify request.

This command broadcasts an identify request and displays every cube
that answers, with its serial number, IP address, RF address and
firmware version. Discovered cubes are remembered in the configuration
file so later commands can connect without a --host flag.`,
	Example: `  # Scan for 5 seconds (default)
  maxcube discover

  # Longer scan for slow networks
  maxcube discover --scan-timeout 15`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&scanTimeout, "scan-timeout", 5, "Scan timeout in seconds")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for MAX! Cubes (timeout: %ds)...\n\n", scanTimeout)

	devices, err := discovery.ScanForDevices(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No cubes found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the cube is powered on and connected to your LAN")
		fmt.Println("  - Check that your firewall allows UDP port 23272")
		fmt.Println("  - Broadcast discovery does not cross subnets; connect to the cube's subnet")
		fmt.Println("  - Use --host to specify the IP manually if discovery fails")
		return nil
	}

	fmt.Printf("Found %d cube(s):\n\n", len(devices))

	for i, device := range devices {
		fmt.Printf("%d. %s\n", i+1, device.Serial)
		fmt.Printf("   IP:       %s:%d\n", device.IP, device.Port)
		fmt.Printf("   RF:       %s\n", device.RFAddress)
		fmt.Printf("   Firmware: %s\n", device.Firmware)
		fmt.Println()
	}

	rememberDevices(devices)

	fmt.Println("Use 'maxcube status' to poll a cube")
	fmt.Println("Use 'maxcube monitor' for the live dashboard")

	return nil
}

// rememberDevices records discovered cubes in the config registry.
func rememberDevices(devices []*discovery.Device) {
	registry, err := config.LoadRegistry()
	if err != nil {
		return
	}
	for _, device := range devices {
		registry.UpdateCubeLastSeen(device.Serial, device.IP, device.Port)
	}
	if err := registry.Save(); err == nil {
		if path, pathErr := config.GetConfigPath(); pathErr == nil {
			fmt.Printf("Saved to %s\n\n", path)
		}
	}
}

// statusCmd shows the cube identity and radio budget
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cube identity and radio budget",
	Long: `Connect to a cube and display its identity: serial number, RF
address, firmware version, duty cycle and free command slots, plus the
size of the room and device inventory.`,
	Example: `  # Status with auto-discovery
  maxcube status

  # Status of a specific cube
  maxcube status --host 192.168.1.100

  # JSON output for scripting
  maxcube status --format json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	c, err := dialCube(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	hello := c.Hello()
	if hello == nil {
		return fmt.Errorf("cube did not identify itself")
	}
	comm := c.CommStatus()
	rooms := c.Rooms()
	devices := c.Devices()

	if outputFormat == "json" {
		out := map[string]interface{}{
			"serial_number":     hello.SerialNumber,
			"rf_address":        hello.RFAddress,
			"firmware":          hello.FirmwareVersion,
			"cube_date":         hello.CubeDate,
			"cube_time":         hello.CubeTime,
			"duty_cycle":        comm.DutyCycle,
			"free_memory_slots": comm.FreeMemorySlots,
			"rooms":             len(rooms),
			"devices":           len(devices),
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Cube %s\n", hello.SerialNumber)
	fmt.Printf("  RF address:  %s\n", hello.RFAddress)
	fmt.Printf("  Firmware:    %s\n", hello.FirmwareVersion)
	fmt.Printf("  Cube clock:  %s %s\n", hello.CubeDate, hello.CubeTime)
	fmt.Printf("  Duty cycle:  %d%%\n", comm.DutyCycle)
	fmt.Printf("  Free slots:  %d\n", comm.FreeMemorySlots)
	fmt.Printf("  Inventory:   %d room(s), %d device(s)\n", len(rooms), len(devices))

	return nil
}

// roomsCmd lists the room inventory
var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List rooms and their devices",
	RunE:  runRooms,
}

func runRooms(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	c, err := dialCube(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	rooms := c.Rooms()
	if len(rooms) == 0 {
		fmt.Println("No rooms configured on this cube.")
		return nil
	}

	devices := c.Devices()
	byRoom := make(map[uint8][]codec.Device)
	for _, d := range devices {
		byRoom[d.RoomID] = append(byRoom[d.RoomID], d)
	}

	for _, room := range rooms {
		fmt.Printf("Room %d: %s\n", room.ID, room.Name)
		for _, d := range byRoom[room.ID] {
			fmt.Printf("  %-8s %-22s %s\n", d.RFAddress, deviceLabel(d), d.Type)
		}
	}
	if unassigned := byRoom[0]; len(unassigned) > 0 {
		fmt.Println("Unassigned:")
		for _, d := range unassigned {
			fmt.Printf("  %-8s %-22s %s\n", d.RFAddress, deviceLabel(d), d.Type)
		}
	}

	return nil
}

// devicesCmd lists all devices with their live status
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List devices with their live status",
	Long: `Connect to a cube and list every paired device with its room,
mode, set-point, measured temperature, valve position and flags.`,
	Example: `  # Human-readable table
  maxcube devices

  # JSON output for scripting
  maxcube devices --format json`,
	RunE: runDevices,
}

func init() {
	devicesCmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, json)")
}

func runDevices(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	c, err := dialCube(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	// Poll a fresh status table so valve and temperature are current.
	if _, err := c.GetDeviceStatus(ctx); err != nil {
		return fmt.Errorf("failed to poll device status: %w", err)
	}

	registry, _ := config.LoadRegistry()

	if outputFormat == "json" {
		type deviceOut struct {
			RFAddress   string   `json:"rf_address"`
			Serial      string   `json:"serial_number"`
			Name        string   `json:"name"`
			Room        string   `json:"room"`
			Kind        string   `json:"kind"`
			Mode        string   `json:"mode,omitempty"`
			Setpoint    float64  `json:"setpoint,omitempty"`
			Temperature *float64 `json:"temperature,omitempty"`
			Valve       int      `json:"valve,omitempty"`
			BatteryLow  bool     `json:"battery_low"`
			LinkError   bool     `json:"link_error"`
			Open        *bool    `json:"open,omitempty"`
		}
		out := make([]deviceOut, 0, len(c.Devices()))
		for _, d := range c.Devices() {
			info, err := c.DeviceInfo(d.RFAddress)
			if err != nil {
				continue
			}
			entry := deviceOut{
				RFAddress: d.RFAddress,
				Serial:    d.SerialNumber,
				Name:      nickname(registry, d),
				Room:      info.RoomName,
				Kind:      d.Type.String(),
			}
			if s := info.Status; s != nil {
				entry.Mode = strings.ToLower(s.Mode.String())
				entry.Setpoint = s.Setpoint
				entry.Temperature = s.Temperature
				entry.Valve = s.ValvePercent
				entry.BatteryLow = s.BatteryLow
				entry.LinkError = s.LinkError
				entry.Open = s.Open
			}
			out = append(out, entry)
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("%-8s %-20s %-14s %-8s %6s %6s %6s  %s\n",
		"RF", "DEVICE", "ROOM", "MODE", "SET", "TEMP", "VALVE", "FLAGS")
	for _, d := range c.Devices() {
		info, err := c.DeviceInfo(d.RFAddress)
		if err != nil {
			continue
		}
		mode, set, temp, valve := "-", "-", "-", "-"
		var flags []string
		if s := info.Status; s != nil {
			mode = strings.ToLower(s.Mode.String())
			if s.Kind == codec.StatusThermostat || s.Kind == codec.StatusWallThermostat {
				set = fmt.Sprintf("%.1f", s.Setpoint)
			}
			if s.Temperature != nil {
				temp = fmt.Sprintf("%.1f", *s.Temperature)
			}
			if s.Kind == codec.StatusThermostat {
				valve = fmt.Sprintf("%d%%", s.ValvePercent)
			}
			if s.BatteryLow {
				flags = append(flags, "battery!")
			}
			if s.LinkError {
				flags = append(flags, "link!")
			}
			if s.Open != nil {
				if *s.Open {
					flags = append(flags, "open")
				} else {
					flags = append(flags, "closed")
				}
			}
		} else {
			flags = append(flags, "no report")
		}
		fmt.Printf("%-8s %-20s %-14s %-8s %6s %6s %6s  %s\n",
			d.RFAddress, nickname(registry, d), info.RoomName, mode, set, temp, valve,
			strings.Join(flags, " "))
	}

	return nil
}

// setTempCmd sets a device's target temperature
var setTempCmd = &cobra.Command{
	Use:   "set-temp <rf-address> <temperature>",
	Short: "Set a thermostat's target temperature",
	Long: `Set the target temperature and operating mode of one thermostat.

Modes:
  manual    hold the temperature until changed again
  auto      return to the weekly schedule (temperature is ignored by
            the device; pass the current set-point)
  boost     full heat for the configured boost duration
  vacation  hold until the --until date, then return to the schedule

Temperatures are clamped to the device range (4.5 - 30.5 degrees in
half-degree steps); values below the minimum are raised to it.`,
	Example: `  # Hold 21.5 degrees
  maxcube set-temp 0fc380 21.5

  # Back to the weekly schedule
  maxcube set-temp 0fc380 20 --mode auto

  # Away until the evening of September 5th
  maxcube set-temp 0fc380 16 --mode vacation --until "2026-09-05 23:00"`,
	Args: cobra.ExactArgs(2),
	RunE: runSetTemp,
}

func init() {
	setTempCmd.Flags().StringVar(&setMode, "mode", "manual", "Operating mode (auto, manual, vacation, boost)")
	setTempCmd.Flags().StringVar(&setUntil, "until", "", "Vacation end, \"YYYY-MM-DD HH:MM\" (vacation mode only)")
}

func runSetTemp(cmd *cobra.Command, args []string) error {
	rfAddress := args[0]
	degrees, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid temperature %q: %w", args[1], err)
	}

	mode, err := codec.ParseMode(setMode)
	if err != nil {
		return fmt.Errorf("invalid mode %q (use auto, manual, vacation or boost)", setMode)
	}

	var until time.Time
	if mode == codec.ModeVacation {
		if setUntil == "" {
			return fmt.Errorf("vacation mode needs --until")
		}
		until, err = time.ParseInLocation("2006-01-02 15:04", setUntil, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --until %q (use \"YYYY-MM-DD HH:MM\"): %w", setUntil, err)
		}
	} else if setUntil != "" {
		return fmt.Errorf("--until only applies to vacation mode")
	}

	ctx, cancel := commandContext()
	defer cancel()

	c, err := dialCube(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Printf("Setting %s to %.1f degrees (%s)...\n", rfAddress, degrees, strings.ToLower(mode.String()))

	accepted, err := c.SetTemperature(ctx, rfAddress, mode, degrees, until)
	if err != nil {
		return fmt.Errorf("set temperature failed: %w", err)
	}
	if !accepted {
		comm := c.CommStatus()
		return fmt.Errorf("cube rejected the command (duty cycle %d%%, %d free slots); wait and retry",
			comm.DutyCycle, comm.FreeMemorySlots)
	}

	fmt.Println("✓ Command accepted")
	return nil
}

// setScheduleCmd replaces one weekday's heating program
var setScheduleCmd = &cobra.Command{
	Use:   "set-schedule <rf-address> <weekday> <temp@until>...",
	Short: "Replace one weekday's heating program",
	Long: `Replace the heating program of one thermostat for a single weekday.

Each set-point is written as <temperature>@<until>: the temperature
applies until the given time of day. The last set-point should end at
00:00, meaning midnight. A day holds at most 13 set-points; consecutive
equal temperatures are merged.`,
	Example: `  # 17 degrees overnight, 21 during the day, 17 again in the evening
  maxcube set-schedule 0fc380 monday 17@06:30 21@22:00 17@00:00

  # A flat weekend temperature
  maxcube set-schedule 0fc380 saturday 20@00:00`,
	Args: cobra.MinimumNArgs(3),
	RunE: runSetSchedule,
}

func runSetSchedule(cmd *cobra.Command, args []string) error {
	rfAddress := args[0]

	weekday, err := parseWeekday(args[1])
	if err != nil {
		return err
	}

	var temperatures []float64
	var times []string
	for _, arg := range args[2:] {
		temp, until, ok := strings.Cut(arg, "@")
		if !ok {
			return fmt.Errorf("invalid set-point %q (use <temperature>@<HH:MM>)", arg)
		}
		degrees, err := strconv.ParseFloat(temp, 64)
		if err != nil {
			return fmt.Errorf("invalid temperature in %q: %w", arg, err)
		}
		temperatures = append(temperatures, degrees)
		times = append(times, until)
	}

	ctx, cancel := commandContext()
	defer cancel()

	c, err := dialCube(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Printf("Writing %s program for %s (%d set-point(s))...\n", args[1], rfAddress, len(temperatures))

	accepted, err := c.SetSchedule(ctx, rfAddress, weekday, temperatures, times)
	if err != nil {
		return fmt.Errorf("set schedule failed: %w", err)
	}
	if !accepted {
		comm := c.CommStatus()
		return fmt.Errorf("cube rejected the command (duty cycle %d%%, %d free slots); wait and retry",
			comm.DutyCycle, comm.FreeMemorySlots)
	}

	fmt.Println("✓ Command accepted")
	return nil
}

// nameCmd sets a local nickname for a device
var nameCmd = &cobra.Command{
	Use:   "name <rf-address> [nickname]",
	Short: "Set a local nickname for a device",
	Long: `Store a nickname for a device in the local configuration file.

Nicknames replace the cube's own device names in command output and
the monitor dashboard. They never touch the cube. Omit the nickname
to remove an existing one.`,
	Example: `  # Name a radiator thermostat
  maxcube name 0fc380 "Living Room Radiator"

  # Remove the nickname again
  maxcube name 0fc380`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runName,
}

func runName(cmd *cobra.Command, args []string) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	name := ""
	if len(args) == 2 {
		name = args[1]
	}
	registry.SetDeviceName(args[0], name)

	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	if name == "" {
		fmt.Printf("Removed nickname for %s\n", args[0])
	} else {
		fmt.Printf("Named %s %q\n", args[0], name)
	}
	return nil
}

// monitorCmd launches the live TUI dashboard
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Launch the live monitor dashboard",
	Long: `Launch an interactive dashboard that shows every device's mode,
set-point, temperature, valve position and flags, updated live as the
cube pushes status changes.

This is the default when maxcube runs without a subcommand.`,
	Example: `  # Monitor with auto-discovery
  maxcube monitor
  # Or simply (monitor is default):
  maxcube

  # Monitor a specific cube
  maxcube monitor --host 192.168.1.100`,
	RunE: runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the monitor needs a terminal; use 'maxcube devices' for plain output")
	}

	ctx, cancel := commandContext()
	defer cancel()

	c, err := dialCube(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := tui.Run(c); err != nil {
		return fmt.Errorf("monitor error: %w", err)
	}
	return nil
}

// bridgeCmd mirrors the cube onto an MQTT broker
var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Run the MQTT bridge",
	Long: `Run a long-lived bridge that mirrors device state onto an MQTT
broker as retained JSON messages and accepts set-temperature and
set-mode commands on companion topics.

Topics (with the default prefix):
  maxcube/<rf>/state       retained device state, JSON
  maxcube/<rf>/set         command: target temperature as a number
  maxcube/<rf>/mode/set    command: auto, manual or boost
  maxcube/bridge/state     bridge availability (online/offline)`,
	Example: `  # Bridge to a local broker
  maxcube bridge --broker tcp://localhost:1883

  # Authenticated broker with a custom prefix
  maxcube bridge --broker tcp://homeassistant:1883 \
    --mqtt-username max --mqtt-password secret --topic-prefix heating`,
	RunE: runBridge,
}

func init() {
	bridgeCmd.Flags().StringVar(&brokerURL, "broker", "tcp://localhost:1883", "MQTT broker URL")
	bridgeCmd.Flags().StringVar(&mqttUsername, "mqtt-username", "", "MQTT username")
	bridgeCmd.Flags().StringVar(&mqttPassword, "mqtt-password", "", "MQTT password")
	bridgeCmd.Flags().StringVar(&mqttClientID, "mqtt-client-id", "", "MQTT client ID")
	bridgeCmd.Flags().StringVar(&topicPrefix, "topic-prefix", "", "Topic prefix (default \"maxcube\")")
}

func runBridge(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	c, err := dialCube(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	b := bridge.New(c, bridge.Options{
		BrokerURL:   brokerURL,
		Username:    mqttUsername,
		Password:    mqttPassword,
		ClientID:    mqttClientID,
		TopicPrefix: topicPrefix,
	})
	if err := b.Start(); err != nil {
		return fmt.Errorf("bridge failed to start: %w", err)
	}
	defer b.Stop()

	serial := "unknown"
	if hello := c.Hello(); hello != nil {
		serial = hello.SerialNumber
	}
	fmt.Printf("Bridging cube %s to %s (Ctrl-C to stop)\n", serial, brokerURL)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		fmt.Printf("\nReceived %v, shutting down\n", sig)
	case <-c.Done():
		return fmt.Errorf("connection to cube lost")
	}
	return nil
}

// serveCmd runs the HTTP/WebSocket status server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP/WebSocket status server",
	Long: `Run a long-lived HTTP server that exposes the cube's state as a
small REST API and pushes live updates to WebSocket subscribers.

Routes:
  GET /healthz       liveness probe
  GET /api/status    cube identity and radio budget
  GET /api/rooms     room inventory
  GET /api/devices   devices with live status
  GET /ws            WebSocket update feed`,
	Example: `  # Serve on the default port
  maxcube serve

  # Bind a specific interface and port
  maxcube serve --listen-host 0.0.0.0 --listen-port 8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenHost, "listen-host", "127.0.0.1", "Listen address")
	serveCmd.Flags().IntVar(&listenPort, "listen-port", 8026, "Listen port")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	c, err := dialCube(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	srv, err := server.New(&server.Config{
		Host:     listenHost,
		Port:     listenPort,
		LogLevel: logLevel,
	}, c)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// commandContext bounds connect-and-command sequences with the --timeout flag.
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(cmdTimeout)*time.Second)
}

// dialCube resolves the cube address and opens a ready session. The config
// registry is refreshed with the cube's serial on success.
func dialCube(ctx context.Context) (*cube.Cube, error) {
	host, port, err := resolveCube()
	if err != nil {
		return nil, err
	}

	c, err := cube.Dial(ctx, host, port)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cube at %s:%d: %w", host, port, err)
	}

	if hello := c.Hello(); hello != nil {
		if registry, regErr := config.LoadRegistry(); regErr == nil {
			registry.UpdateCubeLastSeen(hello.SerialNumber, host, port)
			_ = registry.Save()
		}
	}

	return c, nil
}

// resolveCube picks the cube to talk to: the --host flag, then the config
// registry's default cube, then UDP discovery.
func resolveCube() (string, int, error) {
	if cubeHost != "" {
		return cubeHost, cubePort, nil
	}

	registry, err := config.LoadRegistry()
	if err == nil {
		if serial, entry := registry.DefaultCube(); entry != nil && entry.Host != "" {
			port := entry.Port
			if port == 0 {
				port = cube.DefaultPort
			}
			fmt.Printf("Using known cube %s at %s:%d\n\n", serial, entry.Host, port)
			return entry.Host, port, nil
		}
		if registry.Preferences != nil && !registry.Preferences.AutoDiscover {
			return "", 0, fmt.Errorf("no cube configured and auto-discovery is disabled. Use --host or run 'maxcube discover'")
		}
	}

	timeout := discovery.DefaultScanTimeout
	if registry != nil && registry.Preferences != nil && registry.Preferences.DiscoverTimeout > 0 {
		timeout = time.Duration(registry.Preferences.DiscoverTimeout) * time.Second
	}

	fmt.Println("No cube specified, scanning the network...")
	devices, err := discovery.ScanForDevices(timeout)
	if err != nil {
		return "", 0, fmt.Errorf("discovery failed: %w", err)
	}

	if len(devices) == 0 {
		return "", 0, fmt.Errorf("no cubes found. Use --host to specify the IP manually")
	}

	if len(devices) > 1 {
		fmt.Printf("Found %d cubes:\n", len(devices))
		for i, device := range devices {
			fmt.Printf("%d. %s (%s)\n", i+1, device.Serial, device.IP)
		}
		return "", 0, fmt.Errorf("multiple cubes found. Use --host to specify which one")
	}

	device := devices[0]
	fmt.Printf("Found cube: %s (%s)\n\n", device.Serial, device.IP)
	rememberDevices(devices)
	return device.IP, device.Port, nil
}

// parseWeekday maps a weekday name to the schedule index, 0=Monday.
func parseWeekday(s string) (int, error) {
	names := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	lower := strings.ToLower(s)
	for i, name := range names {
		if name == lower || (len(lower) == 3 && strings.HasPrefix(name, lower)) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q (use monday..sunday)", s)
}

// deviceLabel returns the cube's own name for a device, or its serial when
// the inventory entry is unnamed.
func deviceLabel(d codec.Device) string {
	if d.Name != "" {
		return d.Name
	}
	return d.SerialNumber
}

// nickname applies a locally configured nickname over the cube's name.
func nickname(registry *config.Registry, d codec.Device) string {
	label := deviceLabel(d)
	if registry != nil {
		return registry.DeviceName(d.RFAddress, label)
	}
	return label
}
