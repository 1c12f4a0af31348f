package broker

import "testing"

func TestPublishTopicFor(t *testing.T) {
	cases := []struct {
		filter, segment, want string
	}{
		{"lora/+/uplink", "gw-1", "lora/gw-1/uplink"},
		{"lora/uplink", "gw-1", "lora/uplink"},
		{"lora/#", "gw-1", "lora"},
		{"+/+/data", "x", "x/x/data"},
	}
	for _, tc := range cases {
		if got := PublishTopicFor(tc.filter, tc.segment); got != tc.want {
			t.Fatalf("PublishTopicFor(%q, %q) = %q, want %q", tc.filter, tc.segment, got, tc.want)
		}
	}
}
