package telemetry

import (
	"context"
	"net"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// buildResource assembles the OpenTelemetry resource for this process.
// host.name carries the resolved host IP so traces from different
// importer instances can be told apart.
func buildResource(ctx context.Context, cfg *Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	}

	if ip := getHostIP(); ip != "" {
		attrs = append(attrs, semconv.HostName(ip))
	}

	for k, v := range cfg.ResourceAttrs {
		attrs = append(attrs, attribute.String(k, v))
	}

	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, attrs...),
	)
}

// getHostIP resolves the hostname to an IP, preferring IPv4 and
// skipping loopback. Falls back to scanning network interfaces, and
// returns "" when nothing usable is found.
func getHostIP() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}

	addrs, err := net.LookupIP(hostname)
	if err != nil {
		return getFirstNonLoopbackIP()
	}

	if ip := pickAddr(addrs); ip != "" {
		return ip
	}
	return getFirstNonLoopbackIP()
}

// pickAddr chooses a non-loopback address from the list, IPv4 first.
func pickAddr(addrs []net.IP) string {
	for _, addr := range addrs {
		if ipv4 := addr.To4(); ipv4 != nil && !ipv4.IsLoopback() {
			return ipv4.String()
		}
	}
	for _, addr := range addrs {
		if !addr.IsLoopback() {
			return addr.String()
		}
	}
	return ""
}

// getFirstNonLoopbackIP returns the first non-loopback IPv4 address
// found on an up network interface.
func getFirstNonLoopbackIP() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.IsLoopback() {
				continue
			}
			if ipv4 := ip.To4(); ipv4 != nil {
				return ipv4.String()
			}
		}
	}

	return ""
}
