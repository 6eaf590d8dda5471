// file: proxmox/client_test.go
package proxmox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		Host:       "pve.example",
		User:       "ctf@pve",
		TokenName:  "ctf",
		TokenValue: "secret",
		Node:       "pve",
	})
	c.BaseURL = srv.URL
	c.http = srv.Client()
	return c
}

func TestNextID(t *testing.T) {
	var gotAuth string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/cluster/nextid" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":"501"}`))
	}))

	id, err := c.NextID(context.Background())
	if err != nil {
		t.Fatalf("NextID returned error: %v", err)
	}
	if id != 501 {
		t.Errorf("NextID = %d, want 501", id)
	}
	if want := "PVEAPIToken=ctf@pve!ctf=secret"; gotAuth != want {
		t.Errorf("Authorization = %q, want %q", gotAuth, want)
	}
}

func TestClone(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/nodes/pve/qemu/100/clone" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostFormValue("newid"); got != "501" {
			t.Errorf("newid = %q, want 501", got)
		}
		if got := r.PostFormValue("full"); got != "0" {
			t.Errorf("full = %q, want 0 (linked clone)", got)
		}
		if got := r.PostFormValue("name"); got != "ctf-u7" {
			t.Errorf("name = %q, want ctf-u7", got)
		}
		w.Write([]byte(`{"data":"UPID:pve:00001234:0012:67890:qmclone:100:ctf@pve!ctf:"}`))
	}))

	upid, err := c.Clone(context.Background(), 100, 501, "ctf-u7", "CTF VM for user 7")
	if err != nil {
		t.Fatalf("Clone returned error: %v", err)
	}
	if upid == "" {
		t.Error("Clone returned empty UPID")
	}
}

func TestCurrentStatus(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/nodes/pve/qemu/501/status/current" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":{"status":"running","uptime":1234}}`))
	}))

	st, err := c.CurrentStatus(context.Background(), 501)
	if err != nil {
		t.Fatalf("CurrentStatus returned error: %v", err)
	}
	if st.Status != "running" || st.Uptime != 1234 {
		t.Errorf("CurrentStatus = %+v, want running/1234", st)
	}
}

func TestGuestIPv4(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
		want string
	}{
		{
			name: "known nic with ipv4",
			body: `{"data":{"result":[
				{"name":"lo","ip-addresses":[{"ip-address-type":"ipv4","ip-address":"127.0.0.1"}]},
				{"name":"ens18","ip-addresses":[
					{"ip-address-type":"ipv6","ip-address":"fe80::1"},
					{"ip-address-type":"ipv4","ip-address":"10.0.0.5"}]}]}}`,
			code: http.StatusOK,
			want: "10.0.0.5",
		},
		{
			name: "loopback address on known nic skipped",
			body: `{"data":{"result":[
				{"name":"eth0","ip-addresses":[
					{"ip-address-type":"ipv4","ip-address":"127.0.0.1"},
					{"ip-address-type":"ipv4","ip-address":"192.168.1.7"}]}]}}`,
			code: http.StatusOK,
			want: "192.168.1.7",
		},
		{
			name: "unknown nic ignored",
			body: `{"data":{"result":[
				{"name":"docker0","ip-addresses":[{"ip-address-type":"ipv4","ip-address":"172.17.0.1"}]}]}}`,
			code: http.StatusOK,
			want: "",
		},
		{
			name: "ipv6 only",
			body: `{"data":{"result":[
				{"name":"ens18","ip-addresses":[{"ip-address-type":"ipv6","ip-address":"fd00::5"}]}]}}`,
			code: http.StatusOK,
			want: "",
		},
		{
			name: "agent not running",
			body: `{"errors":{"agent":"QEMU guest agent is not running"}}`,
			code: http.StatusInternalServerError,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body))
			}))

			ip, err := c.GuestIPv4(context.Background(), 501)
			if err != nil {
				t.Fatalf("GuestIPv4 returned error: %v", err)
			}
			if ip != tt.want {
				t.Errorf("GuestIPv4 = %q, want %q", ip, tt.want)
			}
		})
	}
}

func TestVNCProxy(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Write([]byte(`{"data":{"port":"5900","ticket":"PVEVNC:abc"}}`))
	}))

	ticket, err := c.VNCProxy(context.Background(), 501)
	if err != nil {
		t.Fatalf("VNCProxy returned error: %v", err)
	}
	if ticket.Port.String() != "5900" || ticket.Ticket != "PVEVNC:abc" {
		t.Errorf("VNCProxy = %+v", ticket)
	}
}

func TestDoHTTPError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "authentication failure", http.StatusUnauthorized)
	}))

	if _, err := c.NextID(context.Background()); err == nil {
		t.Fatal("expected error on 401 response")
	}
}

func TestDeletePath(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		if r.URL.Path != "/nodes/pve/qemu/501" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":null}`))
	}))

	if err := c.Delete(context.Background(), 501); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
}
