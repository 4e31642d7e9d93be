package links

import (
	"sort"

	"github.com/abdusco/shortly/internal"
	"github.com/samber/lo"
)

// counter groups keys preserving the order of first occurrence.
type counter struct {
	index map[string]int
	rows  []internal.KeyCount
}

func newCounter() *counter {
	return &counter{index: map[string]int{}, rows: []internal.KeyCount{}}
}

func (c *counter) add(key string) {
	if i, ok := c.index[key]; ok {
		c.rows[i].Count++
		return
	}
	c.index[key] = len(c.rows)
	c.rows = append(c.rows, internal.KeyCount{Key: key, Count: 1})
}

// Aggregate summarizes clicks in a single pass. Unique visitors count distinct
// non-empty IPs; clicks without an IP still count towards the total.
func Aggregate(clicks []internal.Click) internal.LinkStatistics {
	referrers := newCounter()
	browsers := newCounter()
	devices := newCounter()
	systems := newCounter()

	details := make([]internal.Click, 0, len(clicks))
	for _, click := range clicks {
		click = withSentinels(click)

		referrers.add(click.Referrer)
		browsers.add(click.Browser)
		devices.add(click.Device)
		systems.add(click.OS)

		details = append(details, click)
	}

	sort.SliceStable(details, func(i, j int) bool {
		return details[i].Timestamp.After(details[j].Timestamp)
	})

	ips := lo.Uniq(lo.FilterMap(clicks, func(c internal.Click, _ int) (string, bool) {
		return c.IP, c.IP != ""
	}))

	return internal.LinkStatistics{
		TotalClicks:      int64(len(clicks)),
		UniqueVisitors:   int64(len(ips)),
		Referrers:        referrers.rows,
		Browsers:         browsers.rows,
		Devices:          devices.rows,
		OperatingSystems: systems.rows,
		Clicks:           details,
	}
}

func withSentinels(c internal.Click) internal.Click {
	if c.Referrer == "" {
		c.Referrer = internal.DirectReferrer
	}
	if c.Browser == "" {
		c.Browser = internal.UnknownValue
	}
	if c.OS == "" {
		c.OS = internal.UnknownValue
	}
	if c.Device == "" {
		c.Device = internal.DesktopDevice
	}
	return c
}
