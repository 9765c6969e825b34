package hosts

import "testing"

func TestConvert(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unspecified ip blocks", "0.0.0.0 ads.example.com\n", "||ads.example.com^\n"},
		{"loopback blocks", "127.0.0.1 tracker.example.net\n", "||tracker.example.net^\n"},
		{"ipv6 loopback blocks", "::1 ads.example.org\n", "||ads.example.org^\n"},
		{"rewrite entry dropped", "1.2.3.4 cname.example.com\n", ""},
		{"multiple hostnames expand", "0.0.0.0 a.example.com b.example.com\n", "||a.example.com^\n||b.example.com^\n"},
		{"localhost names skipped", "127.0.0.1 localhost localhost.localdomain\n", ""},
		{"mixed local and real", "0.0.0.0 localhost ads.example.com\n", "||ads.example.com^\n"},
		{"inline comment ends hostnames", "0.0.0.0 a.example.com # b.example.com\n", "||a.example.com^\n"},
		{"comment passes through", "# managed hosts file\n", "# managed hosts file\n"},
		{"bang comment passes through", "! some note\n", "! some note\n"},
		{"blank passes through", "\n", "\n"},
		{"abp line passes through", "||already.example.com^$script\n", "||already.example.com^$script\n"},
		{"ip without hostname passes through", "0.0.0.0\n", "0.0.0.0\n"},
		{"idna normalized", "0.0.0.0 münchen.example\n", "||xn--mnchen-3ya.example^\n"},
		{"uppercase lowered", "0.0.0.0 ADS.Example.COM\n", "||ads.example.com^\n"},
		{"invalid hostname skipped", "0.0.0.0 bad_host!name\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Convert(tt.content); got != tt.want {
				t.Errorf("Convert(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestConvertWholeFile(t *testing.T) {
	content := "# sample\n127.0.0.1 localhost\n0.0.0.0 ads.a.com ads.b.com\n10.0.0.1 intranet\n"
	want := "# sample\n||ads.a.com^\n||ads.b.com^\n"
	if got := Convert(content); got != want {
		t.Errorf("Convert = %q, want %q", got, want)
	}
}
