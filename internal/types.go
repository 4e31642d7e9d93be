package internal

import "time"

const (
	UnknownValue   = "Unknown"
	DirectReferrer = "Direct"
	DesktopDevice  = "desktop"
)

type Link struct {
	ID          string    `json:"id"`
	OriginalURL string    `json:"originalUrl"`
	ShortCode   string    `json:"shortCode"`
	Alias       *string   `json:"alias"`
	OwnerID     *string   `json:"-"`
	ClickCount  int64     `json:"clicks"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PublicCode is the path segment advertised in the short URL.
func (l *Link) PublicCode() string {
	if l.Alias != nil && *l.Alias != "" {
		return *l.Alias
	}
	return l.ShortCode
}

func (l *Link) IsOwnedBy(userID string) bool {
	return l.OwnerID != nil && *l.OwnerID == userID
}

type Click struct {
	ID        string    `json:"id"`
	LinkID    string    `json:"linkId"`
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip"`
	Referrer  string    `json:"referrer"`
	UserAgent string    `json:"userAgent"`
	Browser   string    `json:"browser"`
	OS        string    `json:"os"`
	Device    string    `json:"device"`
}

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type KeyCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type LinkStatistics struct {
	TotalClicks      int64      `json:"totalClicks"`
	UniqueVisitors   int64      `json:"uniqueVisitors"`
	Referrers        []KeyCount `json:"referrers"`
	Browsers         []KeyCount `json:"browsers"`
	Devices          []KeyCount `json:"devices"`
	OperatingSystems []KeyCount `json:"operatingSystems"`
	Clicks           []Click    `json:"clicks"`
}

type UserStats struct {
	TotalLinks  int64 `json:"totalLinks"`
	TotalClicks int64 `json:"totalClicks"`
}
