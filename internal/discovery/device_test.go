package discovery

import "testing"

func TestServer_String(t *testing.T) {
	tests := []struct {
		name   string
		server *Server
		want   string
	}{
		{
			name:   "named",
			server: &Server{Instance: "desk", IP: "192.168.4.16", Port: 52772},
			want:   `Ambilight server "desk" at 192.168.4.16:52772`,
		},
		{
			name:   "anonymous",
			server: &Server{IP: "192.168.4.16", Port: 52772},
			want:   "Ambilight server at 192.168.4.16:52772",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.server.String(); got != tt.want {
				t.Errorf("Server.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestServer_Addr(t *testing.T) {
	tests := []struct {
		name     string
		server   *Server
		expected string
	}{
		{"ipv4", &Server{IP: "192.168.4.16", Port: 52772}, "192.168.4.16:52772"},
		{"ipv6", &Server{IP: "fe80::1", Port: 52772}, "[fe80::1]:52772"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.server.Addr(); got != tt.expected {
				t.Errorf("Server.Addr() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestServer_GetMetadata(t *testing.T) {
	s := &Server{Metadata: map[string]string{"id": "abc"}}
	if got := s.GetMetadata("id"); got != "abc" {
		t.Errorf("GetMetadata(id) = %q, want abc", got)
	}
	if got := s.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q, want empty", got)
	}

	empty := &Server{}
	if got := empty.GetMetadata("id"); got != "" {
		t.Errorf("GetMetadata on nil map = %q, want empty", got)
	}
}
