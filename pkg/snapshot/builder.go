package snapshot

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/goliatone/go-survey-collector/pkg/adapters"
	"github.com/goliatone/go-survey-collector/pkg/adapters/ipapi"
	"github.com/goliatone/go-survey-collector/pkg/capabilities"
	"github.com/goliatone/go-survey-collector/pkg/interfaces/logger"
	"github.com/goliatone/go-survey-collector/pkg/ipcrypt"
	"github.com/goliatone/go-survey-collector/pkg/secrets"
	"github.com/goliatone/go-survey-collector/pkg/useragent"
)

// Geolocator resolves an IP address to a geolocation result, nil on failure.
type Geolocator interface {
	Lookup(ctx context.Context, ip string, timeout time.Duration) adapters.Result
}

// Request carries the inputs of one snapshot build.
type Request struct {
	// IPOverride replaces the network address (debug/testing).
	IPOverride    string
	RemoteAddr    string
	UserAgent     string
	Referrer      string
	EncryptionKey string
	KeyVersion    string
	GeoEnabled    bool
	GeoTimeout    time.Duration
}

// Builder assembles snapshots. It holds no per-request state.
type Builder struct {
	geo Geolocator
}

func NewBuilder(geo Geolocator) *Builder {
	return &Builder{geo: geo}
}

// Build never fails; every problem degrades to empty values and a log line.
func (b *Builder) Build(ctx context.Context, req Request, log logger.Logger) Snapshot {
	log = logger.OrNop(log)
	snap := New()

	remote := hostOnly(req.RemoteAddr)
	ip := strings.TrimSpace(req.IPOverride)
	if ip == "" {
		ip = remote
	}
	if ip == "" {
		ip = ipcrypt.Unknown
		log.Error("snapshot: client ip could not be determined")
	}
	snap.Set(capabilities.OptionIPAddress, ip)
	snap.Set(capabilities.OptionRemoteAddr, remote)

	snap.Set(capabilities.OptionEncryptedIP, encrypt(ip, req, log))

	ua := useragent.Parse(req.UserAgent)
	snap.Set(capabilities.OptionUserAgent, req.UserAgent)
	snap.Set(capabilities.OptionBrowserName, ua.Browser)
	snap.Set(capabilities.OptionBrowserVersion, ua.BrowserVersion)
	snap.Set(capabilities.OptionPlatform, ua.Platform)
	snap.Set(capabilities.OptionPlatformVersion, ua.PlatformVersion)
	snap.Set(capabilities.OptionIsMobile, flag(ua.Mobile))
	snap.Set(capabilities.OptionIsRobot, flag(ua.Robot))
	snap.Set(capabilities.OptionReferrer, req.Referrer)

	if req.GeoEnabled && ip != ipcrypt.Unknown {
		if b == nil || b.geo == nil {
			log.Warn("snapshot: geolocation enabled but no geolocator configured")
		} else if res := b.geo.Lookup(ctx, ip, req.GeoTimeout); res != nil {
			for _, option := range capabilities.OptionsIn(capabilities.FamilyGeolocation) {
				snap.Set(option, ipapi.MapValue(option, res))
			}
		} else {
			log.Debug("snapshot: geolocation unavailable", logger.Field{Key: "ip", Value: secrets.Mask(ip)})
		}
	}
	return snap
}

func encrypt(ip string, req Request, log logger.Logger) string {
	if ip == ipcrypt.Unknown {
		return ""
	}
	if strings.TrimSpace(req.EncryptionKey) == "" {
		log.Warn("snapshot: encryption key not configured, encrypted ip left empty")
		return ""
	}
	c, err := ipcrypt.New(req.EncryptionKey, req.KeyVersion)
	if err != nil {
		log.Error("snapshot: ip encryption unavailable", logger.Field{Key: "error", Value: err})
		return ""
	}
	enc, err := c.Encrypt(ip)
	if err != nil {
		log.Error("snapshot: ip encryption failed", logger.Field{Key: "error", Value: err})
		return ""
	}
	return enc.String()
}

func hostOnly(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
