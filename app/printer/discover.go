package printer

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"sort"
	"strconv"
	"sync"
	"time"

	"PosPrint/app/models"
)

// DetectedPrinter is a host that accepted a connection on the printer port
type DetectedPrinter struct {
	Address   string `json:"address"`
	Port      int    `json:"port"`
	Status    string `json:"status"` // "online"
	LatencyMs int64  `json:"latency_ms"`
}

// maxScanHosts caps a scan at a /22
const maxScanHosts = 1024

// ScanOptions tunes a discovery scan
type ScanOptions struct {
	Port    int           // 0 means 9100
	Timeout time.Duration // per host; 0 means 500ms
	Workers int           // 0 means 64
}

// Discover connects to port 9100 (or opts.Port) on every host and returns the
// ones that answered, ordered by address. Connections are closed without
// writing anything.
func Discover(ctx context.Context, dialer Dialer, hosts []string, opts ScanOptions) []DetectedPrinter {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	if opts.Port == 0 {
		opts.Port = models.DefaultPrinterPort
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 500 * time.Millisecond
	}
	if opts.Workers <= 0 {
		opts.Workers = 64
	}

	jobs := make(chan string)
	var (
		mu    sync.Mutex
		found []DetectedPrinter
		wg    sync.WaitGroup
	)

	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for host := range jobs {
				if printer, ok := probe(ctx, dialer, host, opts); ok {
					mu.Lock()
					found = append(found, printer)
					mu.Unlock()
				}
			}
		}()
	}

feed:
	for _, host := range hosts {
		select {
		case jobs <- host:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(found, func(i, j int) bool {
		a, errA := netip.ParseAddr(found[i].Address)
		b, errB := netip.ParseAddr(found[j].Address)
		if errA != nil || errB != nil {
			return found[i].Address < found[j].Address
		}
		return a.Less(b)
	})
	return found
}

func probe(ctx context.Context, dialer Dialer, host string, opts ScanOptions) (DetectedPrinter, bool) {
	dialCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	start := time.Now()
	conn, err := dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(host, strconv.Itoa(opts.Port)))
	if err != nil {
		return DetectedPrinter{}, false
	}
	conn.Close()

	return DetectedPrinter{
		Address:   host,
		Port:      opts.Port,
		Status:    "online",
		LatencyMs: time.Since(start).Milliseconds(),
	}, true
}

// SubnetHosts lists the usable IPv4 host addresses of a prefix such as
// "192.168.1.0/24". Network and broadcast addresses are skipped for prefixes
// shorter than /31.
func SubnetHosts(cidr string) ([]string, error) {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid subnet %q: %w", cidr, err)
	}
	prefix = prefix.Masked()
	if !prefix.Addr().Is4() {
		return nil, fmt.Errorf("subnet %q is not IPv4", cidr)
	}

	bits := 32 - prefix.Bits()
	if bits > 10 {
		return nil, fmt.Errorf("subnet %q is larger than %d hosts", cidr, maxScanHosts)
	}

	total := 1 << bits
	hosts := make([]string, 0, total)
	addr := prefix.Addr()
	for i := 0; i < total; i++ {
		last := i == total-1
		if bits >= 2 && (i == 0 || last) {
			addr = addr.Next()
			continue
		}
		hosts = append(hosts, addr.String())
		addr = addr.Next()
	}
	return hosts, nil
}

// LocalSubnets returns the IPv4 /24 networks of the machine's up, non-loopback
// interfaces.
func LocalSubnets() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var subnets []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip, ok := netip.AddrFromSlice(ipNet.IP.To4())
			if !ok {
				continue
			}
			prefix, err := ip.Prefix(24)
			if err != nil {
				continue
			}
			cidr := prefix.String()
			if !seen[cidr] {
				seen[cidr] = true
				subnets = append(subnets, cidr)
			}
		}
	}
	return subnets, nil
}
