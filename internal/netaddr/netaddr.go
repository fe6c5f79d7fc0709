// Package netaddr finds the address other machines on the LAN can reach us at.
package netaddr

import (
	"net"

	"github.com/jackpal/gateway"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LocalIP returns the IPv4 address of the interface facing the default
// gateway. Without a gateway it falls back to the first usable IPv4 address
// on an up, non-loopback interface.
func LocalIP() (net.IP, error) {
	addrs, err := interfaceAddrs()
	if err != nil {
		return nil, err
	}

	gw, err := gateway.DiscoverGateway()
	if err != nil {
		logrus.WithError(err).Debug("gateway discovery failed, picking first interface address")
	} else if ip := matchGateway(gw, addrs); ip != nil {
		return ip, nil
	}

	if ip := firstUsable(addrs); ip != nil {
		return ip, nil
	}
	return nil, errors.New("no usable IPv4 address found")
}

// interfaceAddrs lists the addresses of every interface that is up and not loopback.
func interfaceAddrs() ([]*net.IPNet, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, errors.Wrap(err, "list network interfaces")
	}

	var out []*net.IPNet
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			logrus.WithError(err).WithField("interface", iface.Name).Warn("failed to read interface addresses")
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok {
				out = append(out, ipnet)
			}
		}
	}
	return out, nil
}

func usable(ip net.IP) net.IP {
	v4 := ip.To4()
	if v4 == nil || v4.IsLoopback() || !v4.IsGlobalUnicast() {
		return nil
	}
	return v4
}

// matchGateway returns the address whose subnet contains gw.
func matchGateway(gw net.IP, addrs []*net.IPNet) net.IP {
	for _, a := range addrs {
		if v4 := usable(a.IP); v4 != nil && a.Contains(gw) {
			return v4
		}
	}
	return nil
}

func firstUsable(addrs []*net.IPNet) net.IP {
	for _, a := range addrs {
		if v4 := usable(a.IP); v4 != nil {
			return v4
		}
	}
	return nil
}
