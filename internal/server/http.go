package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ivesdebruycker/maxcube/internal/cube"
	"github.com/ivesdebruycker/maxcube/internal/logging"
)

// StatusView is the /api/status document
type StatusView struct {
	SerialNumber    string `json:"serial_number,omitempty"`
	RFAddress       string `json:"rf_address,omitempty"`
	Firmware        string `json:"firmware,omitempty"`
	DutyCycle       int    `json:"duty_cycle"`
	FreeMemorySlots int    `json:"free_memory_slots"`
	Rooms           int    `json:"rooms"`
	Devices         int    `json:"devices"`
}

// RoomView is one entry of the /api/rooms document
type RoomView struct {
	ID      uint8    `json:"id"`
	Name    string   `json:"name"`
	Devices []string `json:"devices"` // rf addresses
}

// DeviceView is the JSON shape of one device, used by both the snapshot
// API and the WebSocket feed
type DeviceView struct {
	RFAddress    string   `json:"rf_address"`
	SerialNumber string   `json:"serial_number"`
	Name         string   `json:"name"`
	Room         string   `json:"room,omitempty"`
	Kind         string   `json:"kind"`
	Mode         string   `json:"mode,omitempty"`
	Setpoint     float64  `json:"setpoint,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	Valve        int      `json:"valve,omitempty"`
	BatteryLow   bool     `json:"battery_low,omitempty"`
	LinkError    bool     `json:"link_error,omitempty"`
	Open         *bool    `json:"open,omitempty"`
}

// deviceView flattens a device join into its JSON shape
func deviceView(info cube.DeviceInfo) DeviceView {
	view := DeviceView{
		RFAddress:    info.Device.RFAddress,
		SerialNumber: info.Device.SerialNumber,
		Name:         info.Device.Name,
		Room:         info.RoomName,
		Kind:         info.Device.Type.String(),
	}
	if status := info.Status; status != nil {
		view.Mode = strings.ToLower(status.Mode.String())
		view.Setpoint = status.Setpoint
		view.Temperature = status.Temperature
		view.Valve = status.ValvePercent
		view.BatteryLow = status.BatteryLow
		view.LinkError = status.LinkError
		view.Open = status.Open
	}
	return view
}

// deviceViews builds the full device list, joined with rooms and statuses
func (s *Server) deviceViews() []DeviceView {
	devices := s.session.Devices()
	views := make([]DeviceView, 0, len(devices))
	for _, dev := range devices {
		info, err := s.session.DeviceInfo(dev.RFAddress)
		if err != nil {
			continue
		}
		views = append(views, deviceView(info))
	}
	return views
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	comm := s.session.CommStatus()
	view := StatusView{
		DutyCycle:       comm.DutyCycle,
		FreeMemorySlots: comm.FreeMemorySlots,
		Rooms:           len(s.session.Rooms()),
		Devices:         len(s.session.Devices()),
	}
	if hello := s.session.Hello(); hello != nil {
		view.SerialNumber = hello.SerialNumber
		view.RFAddress = hello.RFAddress
		view.Firmware = hello.FirmwareVersion
	}
	writeJSON(w, view)
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.session.Rooms()
	devices := s.session.Devices()

	views := make([]RoomView, 0, len(rooms))
	for _, room := range rooms {
		view := RoomView{ID: room.ID, Name: room.Name, Devices: []string{}}
		for _, dev := range devices {
			if dev.RoomID == room.ID {
				view.Devices = append(view.Devices, dev.RFAddress)
			}
		}
		views = append(views, view)
	}
	writeJSON(w, views)
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.deviceViews())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode response", zap.Error(err))
	}
}
