package discovery

import "testing"

func TestDevice_String(t *testing.T) {
	device := &Device{
		Instance: "Printer 3F2A",
		Hostname: "printer-3f2a.local.",
		IP:       "192.168.1.16",
		Port:     443,
	}

	expected := "Printer 3F2A (printer-3f2a.local.) at 192.168.1.16"
	if device.String() != expected {
		t.Errorf("Device.String() = %v, want %v", device.String(), expected)
	}
}

func TestDevice_BaseURL(t *testing.T) {
	tests := []struct {
		name     string
		device   *Device
		expected string
	}{
		{
			name:     "standard HTTPS port",
			device:   &Device{IP: "192.168.1.16", Port: 443},
			expected: "https://192.168.1.16",
		},
		{
			name:     "custom port",
			device:   &Device{IP: "10.0.0.5", Port: 8443},
			expected: "https://10.0.0.5:8443",
		},
		{
			name:     "IPv6",
			device:   &Device{IP: "fe80::1", Port: 443},
			expected: "https://[fe80::1]",
		},
		{
			name:     "IPv6 custom port",
			device:   &Device{IP: "fe80::1", Port: 8443},
			expected: "https://[fe80::1]:8443",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.device.BaseURL(); got != tt.expected {
				t.Errorf("Device.BaseURL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDevice_GetMetadata(t *testing.T) {
	device := &Device{Metadata: map[string]string{"fw": "1.2.0"}}

	if got := device.GetMetadata("fw"); got != "1.2.0" {
		t.Errorf("GetMetadata(fw) = %q", got)
	}
	if got := device.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q", got)
	}

	empty := &Device{}
	if got := empty.GetMetadata("fw"); got != "" {
		t.Errorf("GetMetadata on nil metadata = %q", got)
	}
}
