// Package sysinfo gathers the host facts shown on the system info panel.
package sysinfo

import (
	"bufio"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
)

// Info is a point-in-time host summary.
type Info struct {
	Hostname  string        `json:"host"`
	IP        string        `json:"ip"`
	Uptime    time.Duration `json:"-"`
	FreeBytes uint64        `json:"freeHeap"` // memory available to new allocations
	RSSI      int           `json:"rssi"`
	HasRSSI   bool          `json:"-"`
	Interface string        `json:"ssid,omitempty"`
}

// Collector samples Info. Cheap enough to call once per tick.
type Collector struct {
	boot            time.Time
	wirelessPath    string
	interfaceAddrs  func() ([]net.Addr, error)
	availableMemory func() (uint64, error)
}

// NewCollector starts the uptime clock at boot.
func NewCollector(boot time.Time) *Collector {
	return &Collector{
		boot:            boot,
		wirelessPath:    "/proc/net/wireless",
		interfaceAddrs:  net.InterfaceAddrs,
		availableMemory: availableMemory,
	}
}

// Collect samples the host at now.
func (c *Collector) Collect(now time.Time) Info {
	info := Info{
		Uptime: now.Sub(c.boot),
		IP:     c.primaryIP(),
	}
	info.Hostname, _ = os.Hostname()

	if free, err := c.availableMemory(); err == nil {
		info.FreeBytes = free
	}

	if f, err := os.Open(c.wirelessPath); err == nil {
		info.Interface, info.RSSI, info.HasRSSI = parseWireless(f)
		f.Close()
	}
	return info
}

func availableMemory() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

func (c *Collector) primaryIP() string {
	addrs, err := c.interfaceAddrs()
	if err != nil {
		return "0.0.0.0"
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipnet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return "0.0.0.0"
}

// parseWireless reads the first interface's signal level (dBm) from the
// Linux /proc/net/wireless table.
func parseWireless(r io.Reader) (iface string, rssi int, ok bool) {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		if line <= 2 {
			continue // two header lines
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			continue
		}
		level, err := strconv.ParseFloat(strings.TrimSuffix(fields[3], "."), 64)
		if err != nil {
			continue
		}
		return strings.TrimSuffix(fields[0], ":"), int(level), true
	}
	return "", 0, false
}
