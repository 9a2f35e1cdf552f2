package bot

import "testing"

func TestSenderNumber(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{"direct chat", Event{From: "6281235581851@c.us"}, "6281235581851"},
		{"group author", Event{From: "120363365218296529@g.us", Author: "6285712208535@s.whatsapp.net"}, "6285712208535"},
		{"legacy group", Event{From: "6281330326382-1600000000@g.us"}, "6281330326382"},
		{"device suffix", Event{From: "x@g.us", Author: "6282323363406:12@s.whatsapp.net"}, "6282323363406"},
		{"bare", Event{From: "12345"}, "12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ev.SenderNumber(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestFilter_Accept(t *testing.T) {
	f := NewFilter("wulang", []string{"81235581851", "85712208535", ""})
	tests := []struct {
		name string
		ev   Event
		want bool
	}{
		{"allowed with country code", Event{From: "6281235581851@c.us", Body: "wulang halo"}, true},
		{"allowed exact", Event{From: "81235581851@c.us", Body: "halo wulang"}, true},
		{"keyword case-insensitive", Event{From: "g@g.us", Author: "6285712208535@s.whatsapp.net", Body: "WULANG tolong"}, true},
		{"no keyword", Event{From: "6281235581851@c.us", Body: "halo"}, false},
		{"three digit country code", Event{From: "88081235581851@c.us", Body: "wulang halo"}, true},
		{"snowflake ending in allowed number", Event{From: "112233445566781235581851", Body: "wulang halo"}, false},
		{"too many leading digits", Event{From: "999981235581851@c.us", Body: "wulang halo"}, false},
		{"not allowed", Event{From: "6289999999999@c.us", Body: "wulang halo"}, false},
		{"self authored", Event{From: "6281235581851@c.us", Body: "wulang halo", FromMe: true}, false},
		{"empty sender", Event{Body: "wulang"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Accept(tt.ev); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
