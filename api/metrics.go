package api

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

type NetworkMetrics struct {
	DNS        time.Duration
	Conn       time.Duration
	TCP        time.Duration
	TLS        time.Duration
	TTFB       time.Duration
	Download   time.Duration
	Total      time.Duration
	ConnReused bool
	RemoteAddr string
	Status     int
	UploadSize int
}

func metricsFrom(ti resty.TraceInfo) *NetworkMetrics {
	m := &NetworkMetrics{
		DNS:        ti.DNSLookup,
		Conn:       ti.ConnTime,
		TCP:        ti.TCPConnTime,
		TLS:        ti.TLSHandshake,
		TTFB:       ti.ServerTime,
		Download:   ti.ResponseTime,
		Total:      ti.TotalTime,
		ConnReused: ti.IsConnReused,
	}
	if ti.RemoteAddr != nil {
		m.RemoteAddr = ti.RemoteAddr.String()
	}
	return m
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Lines renders the timings for the results panel.
func (m *NetworkMetrics) Lines() []string {
	if m == nil {
		return nil
	}
	conn := "new"
	if m.ConnReused {
		conn = "reused"
	}
	lines := []string{
		fmt.Sprintf("conn:     %s", conn),
		fmt.Sprintf("dns:      %.0fms", ms(m.DNS)),
	}
	if m.TLS > 0 {
		lines = append(lines, fmt.Sprintf("tls:      %.0fms", ms(m.TLS)))
	}
	lines = append(lines,
		fmt.Sprintf("server:   %.0fms", ms(m.TTFB)),
		fmt.Sprintf("total:    %.0fms", ms(m.Total)),
	)
	if m.UploadSize > 0 {
		lines = append(lines, fmt.Sprintf("upload:   %.1f KB", float64(m.UploadSize)/1024))
	}
	return lines
}

func (m *NetworkMetrics) DNSMs() float64   { return ms(m.DNS) }
func (m *NetworkMetrics) ConnMs() float64  { return ms(m.Conn) }
func (m *NetworkMetrics) TLSMs() float64   { return ms(m.TLS) }
func (m *NetworkMetrics) TTFBMs() float64  { return ms(m.TTFB) }
func (m *NetworkMetrics) TotalMs() float64 { return ms(m.Total) }
