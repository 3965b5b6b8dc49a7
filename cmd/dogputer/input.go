package main

import (
	"bytes"
	"encoding/binary"
	"errors"

	"golang.org/x/sys/unix"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

var inputEventSize = binary.Size(inputEvent{})

// openInputDevice opens an evdev device non-blocking so the poll loop can
// drain it without ever suspending. The raw fd is read with unix.Read;
// wrapping it in an os.File would put it behind the runtime poller and
// make reads block the goroutine again.
func openInputDevice(path string) (int, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, err
	}
	return fd, nil
}

// errDeviceGone is returned by drainInputEvents when the device went away
// (unplugged). EAGAIN is not an error; it just means the queue is empty.
var errDeviceGone = errors.New("input device gone")

// drainInputEvents reads every pending event from fd without blocking.
// It returns the decoded events, which may be empty.
func drainInputEvents(fd int, buf []byte) ([]inputEvent, error) {
	var events []inputEvent

	for {
		n, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN {
				return events, nil
			}
			if err == unix.EINTR {
				continue
			}
			// ENODEV is what the kernel reports for an unplugged device.
			return events, errDeviceGone
		}
		if n == 0 {
			return events, errDeviceGone
		}

		reader := bytes.NewReader(buf[:n])
		for reader.Len() >= inputEventSize {
			var ev inputEvent
			if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
				// Skip malformed events
				break
			}
			events = append(events, ev)
		}
	}
}
