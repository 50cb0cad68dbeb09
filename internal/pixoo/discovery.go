package pixoo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/jwulff/caregiver-go/internal/config"
)

// probeTimeout bounds each host probe during a scan.
const probeTimeout = 500 * time.Millisecond

// scanWorkers is the number of concurrent probes.
const scanWorkers = 50

// ProgressFunc is called during scanning with the number of probed hosts.
type ProgressFunc func(done, total int)

// Scan probes every host of a /24 subnet (e.g. "192.168.1") and returns the
// addresses that answer like a Pixoo, sorted.
func Scan(ctx context.Context, subnet string, onProgress ProgressFunc) ([]string, error) {
	const total = 254

	octets := make(chan int)
	var (
		mu    sync.Mutex
		found []int
		done  int
		wg    sync.WaitGroup
	)

	for i := 0; i < scanWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for octet := range octets {
				ok := probe(ctx, fmt.Sprintf("%s.%d", subnet, octet))

				mu.Lock()
				if ok {
					found = append(found, octet)
				}
				done++
				if onProgress != nil {
					onProgress(done, total)
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for i := 1; i <= total; i++ {
		select {
		case octets <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(octets)
	wg.Wait()

	sort.Ints(found)
	addresses := make([]string, len(found))
	for i, octet := range found {
		addresses[i] = fmt.Sprintf("%s.%d", subnet, octet)
	}
	return addresses, ctx.Err()
}

// LocalSubnet returns the first three octets of the first non-loopback IPv4
// address on an interface that is up.
func LocalSubnet() (string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("failed to get network interfaces: %w", err)
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipNet.IP.To4()
			if ip == nil || ip.IsLoopback() {
				continue
			}
			return fmt.Sprintf("%d.%d.%d", ip[0], ip[1], ip[2]), nil
		}
	}

	return "", errors.New("could not determine local network")
}

func probe(ctx context.Context, address string) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	client := NewClient(config.DisplayConfig{Address: address, Timeout: probeTimeout}, nil)
	return client.Ping(ctx) == nil
}
