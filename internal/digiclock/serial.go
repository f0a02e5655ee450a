package digiclock

import (
	"fmt"
	"sync"

	"go.bug.st/serial"
)

// SerialModule drives a serial-attached seven-segment clock module.
// The module firmware accepts one command per line: "T:<text>" sets
// the displayed text, "B:<level>" sets brightness 0..100.
type SerialModule struct {
	mu   sync.Mutex
	port serial.Port
}

// OpenSerial opens the module's serial port.
func OpenSerial(portName string, baudRate int) (*SerialModule, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open clock module port %s: %w", portName, err)
	}
	return &SerialModule{port: port}, nil
}

// SetString displays s on the module.
func (m *SerialModule) SetString(s string) error {
	return m.send("T:" + s)
}

// SetBrightness sets the module brightness (0..100).
func (m *SerialModule) SetBrightness(level int) error {
	if level < 0 {
		level = 0
	}
	if level > 100 {
		level = 100
	}
	return m.send(fmt.Sprintf("B:%d", level))
}

// Close releases the serial port.
func (m *SerialModule) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.port.Close()
}

func (m *SerialModule) send(cmd string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.port.Write([]byte(cmd + "\r\n")); err != nil {
		return fmt.Errorf("write clock module command %q: %w", cmd, err)
	}
	return nil
}
