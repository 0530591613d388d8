package resolve

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miekg/dns"
)

// startNameserver serves a fixed zone over UDP on localhost and returns its
// address and a counter of queries received.
func startNameserver(t *testing.T) (string, *atomic.Int32) {
	t.Helper()

	var queries atomic.Int32

	mux := dns.NewServeMux()
	mux.HandleFunc(".", func(w dns.ResponseWriter, r *dns.Msg) {
		queries.Add(1)

		m := new(dns.Msg)
		m.SetReply(r)
		q := r.Question[0]
		hdr := dns.RR_Header{Name: q.Name, Rrtype: q.Qtype, Class: dns.ClassINET, Ttl: 60}

		switch {
		case q.Name == "controller-0.ctlplane.lab." && q.Qtype == dns.TypeA:
			m.Answer = append(m.Answer, &dns.A{Hdr: hdr, A: net.ParseIP("192.0.2.10")})
		case q.Name == "compute-0.ctlplane.lab." && q.Qtype == dns.TypeAAAA:
			m.Answer = append(m.Answer, &dns.AAAA{Hdr: hdr, AAAA: net.ParseIP("2001:db8::20")})
		case q.Name == "missing.lab.":
			m.Rcode = dns.RcodeNameError
		case q.Name == "broken.lab.":
			m.Rcode = dns.RcodeServerFailure
		}

		_ = w.WriteMsg(m)
	})

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listening: %v", err)
	}

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: mux, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })

	return pc.LocalAddr().String(), &queries
}

func TestResolver_Resolve(t *testing.T) {
	addr, _ := startNameserver(t)
	r, err := New(addr, WithTimeout(2*time.Second))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		host    string
		want    string
		wantErr error
	}{
		{name: "A record", host: "controller-0.ctlplane.lab", want: "192.0.2.10"},
		{name: "fully qualified", host: "controller-0.ctlplane.lab.", want: "192.0.2.10"},
		{name: "AAAA fallback", host: "compute-0.ctlplane.lab", want: "2001:db8::20"},
		{name: "no records", host: "empty.lab", wantErr: ErrNotFound},
		{name: "nxdomain", host: "missing.lab", wantErr: ErrNotFound},
		{name: "server failure", host: "broken.lab", wantErr: ErrLookupFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.host)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolver_IPLiteral(t *testing.T) {
	addr, queries := startNameserver(t)
	r, err := New(addr)
	if err != nil {
		t.Fatal(err)
	}

	for _, ip := range []string{"192.0.2.1", "fd00:fd00::10"} {
		got, err := r.Resolve(context.Background(), ip)
		if err != nil {
			t.Fatalf("Resolve(%s) error = %v", ip, err)
		}
		if got != ip {
			t.Errorf("Resolve(%s) = %q", ip, got)
		}
	}

	if n := queries.Load(); n != 0 {
		t.Errorf("nameserver received %d queries for IP literals", n)
	}
}

func TestNew(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("New(\"\") should fail")
	}

	r, err := New("192.0.2.53")
	if err != nil {
		t.Fatal(err)
	}
	if r.Nameserver() != "192.0.2.53:53" {
		t.Errorf("Nameserver() = %q", r.Nameserver())
	}

	r, err = New("[2001:db8::53]:5353")
	if err != nil {
		t.Fatal(err)
	}
	if r.Nameserver() != "[2001:db8::53]:5353" {
		t.Errorf("Nameserver() = %q", r.Nameserver())
	}
}

func TestNop(t *testing.T) {
	got, err := Nop{}.Resolve(context.Background(), "controller-0")
	if err != nil || got != "controller-0" {
		t.Errorf("Nop.Resolve() = %q, %v", got, err)
	}
}
