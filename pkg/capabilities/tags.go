package capabilities

import "strings"

// Tag is an action tag placed in a field annotation (e.g. @SURVEY-IP-ENCRYPT).
type Tag string

// DataOption is the semantic key a Tag resolves to (e.g. encrypted-ip).
type DataOption string

// Family groups data options by the source that produces them.
type Family string

const (
	FamilyIdentity    Family = "identity"
	FamilyGeolocation Family = "geolocation"
	FamilyEmail       Family = "email"
	FamilyPhone       Family = "phone"
)

// Identity options, derived from the request itself.
const (
	OptionEncryptedIP     DataOption = "encrypted-ip"
	OptionIPAddress       DataOption = "ip-address"
	OptionRemoteAddr      DataOption = "remote-addr"
	OptionUserAgent       DataOption = "user-agent"
	OptionBrowserName     DataOption = "browser-name"
	OptionBrowserVersion  DataOption = "browser-version"
	OptionPlatform        DataOption = "platform"
	OptionPlatformVersion DataOption = "platform-version"
	OptionIsMobile        DataOption = "is-mobile"
	OptionIsRobot         DataOption = "is-robot"
	OptionReferrer        DataOption = "referrer"
)

// Geolocation options (ip-api.com).
const (
	OptionGeoStatus      DataOption = "ipapi-status"
	OptionGeoCountry     DataOption = "ipapi-country"
	OptionGeoCountryCode DataOption = "ipapi-country-code"
	OptionGeoRegion      DataOption = "ipapi-region"
	OptionGeoRegionName  DataOption = "ipapi-region-name"
	OptionGeoCity        DataOption = "ipapi-city"
	OptionGeoZip         DataOption = "ipapi-zip"
	OptionGeoLat         DataOption = "ipapi-lat"
	OptionGeoLon         DataOption = "ipapi-lon"
	OptionGeoTimezone    DataOption = "ipapi-timezone"
	OptionGeoISP         DataOption = "ipapi-isp"
	OptionGeoOrg         DataOption = "ipapi-org"
	OptionGeoAS          DataOption = "ipapi-as"
	OptionGeoProxy       DataOption = "ipapi-proxy"
	OptionGeoHosting     DataOption = "ipapi-hosting"
)

// Email validation options (ZeroBounce).
const (
	OptionEmailStatus     DataOption = "zb-status"
	OptionEmailSubStatus  DataOption = "zb-sub-status"
	OptionEmailFree       DataOption = "zb-free-email"
	OptionEmailDidYouMean DataOption = "zb-did-you-mean"
	OptionEmailAccount    DataOption = "zb-account"
	OptionEmailDomain     DataOption = "zb-domain"
	OptionEmailFirstName  DataOption = "zb-firstname"
	OptionEmailLastName   DataOption = "zb-lastname"
	OptionEmailGender     DataOption = "zb-gender"
	OptionEmailCity       DataOption = "zb-city"
	OptionEmailRegion     DataOption = "zb-region"
	OptionEmailCountry    DataOption = "zb-country"
)

// Phone validation options (Numverify).
const (
	OptionPhoneValid         DataOption = "nv-valid"
	OptionPhoneInternational DataOption = "nv-international"
	OptionPhoneLocal         DataOption = "nv-local"
	OptionPhoneCountryPrefix DataOption = "nv-country-prefix"
	OptionPhoneCountryCode   DataOption = "nv-country-code"
	OptionPhoneCountryName   DataOption = "nv-country-name"
	OptionPhoneLocation      DataOption = "nv-location"
	OptionPhoneCarrier       DataOption = "nv-carrier"
	OptionPhoneLineType      DataOption = "nv-line-type"
)

type entry struct {
	tag    Tag
	option DataOption
	family Family
}

// declaration order is the resolution order.
var table = []entry{
	{"@SURVEY-IP-ENCRYPT", OptionEncryptedIP, FamilyIdentity},
	{"@SURVEY-IP", OptionIPAddress, FamilyIdentity},
	{"@SURVEY-REMOTE-ADDR", OptionRemoteAddr, FamilyIdentity},
	{"@SURVEY-USER-AGENT", OptionUserAgent, FamilyIdentity},
	{"@SURVEY-BROWSER", OptionBrowserName, FamilyIdentity},
	{"@SURVEY-BROWSER-VERSION", OptionBrowserVersion, FamilyIdentity},
	{"@SURVEY-PLATFORM", OptionPlatform, FamilyIdentity},
	{"@SURVEY-PLATFORM-VERSION", OptionPlatformVersion, FamilyIdentity},
	{"@SURVEY-IS-MOBILE", OptionIsMobile, FamilyIdentity},
	{"@SURVEY-IS-ROBOT", OptionIsRobot, FamilyIdentity},
	{"@SURVEY-REFERRER", OptionReferrer, FamilyIdentity},

	{"@IPAPI-STATUS", OptionGeoStatus, FamilyGeolocation},
	{"@IPAPI-COUNTRY", OptionGeoCountry, FamilyGeolocation},
	{"@IPAPI-COUNTRY-CODE", OptionGeoCountryCode, FamilyGeolocation},
	{"@IPAPI-REGION", OptionGeoRegion, FamilyGeolocation},
	{"@IPAPI-REGION-NAME", OptionGeoRegionName, FamilyGeolocation},
	{"@IPAPI-CITY", OptionGeoCity, FamilyGeolocation},
	{"@IPAPI-ZIP", OptionGeoZip, FamilyGeolocation},
	{"@IPAPI-LAT", OptionGeoLat, FamilyGeolocation},
	{"@IPAPI-LON", OptionGeoLon, FamilyGeolocation},
	{"@IPAPI-TIMEZONE", OptionGeoTimezone, FamilyGeolocation},
	{"@IPAPI-ISP", OptionGeoISP, FamilyGeolocation},
	{"@IPAPI-ORG", OptionGeoOrg, FamilyGeolocation},
	{"@IPAPI-AS", OptionGeoAS, FamilyGeolocation},
	{"@IPAPI-PROXY", OptionGeoProxy, FamilyGeolocation},
	{"@IPAPI-HOSTING", OptionGeoHosting, FamilyGeolocation},

	{"@ZEROBOUNCE-STATUS", OptionEmailStatus, FamilyEmail},
	{"@ZEROBOUNCE-SUB-STATUS", OptionEmailSubStatus, FamilyEmail},
	{"@ZEROBOUNCE-FREE-EMAIL", OptionEmailFree, FamilyEmail},
	{"@ZEROBOUNCE-DID-YOU-MEAN", OptionEmailDidYouMean, FamilyEmail},
	{"@ZEROBOUNCE-ACCOUNT", OptionEmailAccount, FamilyEmail},
	{"@ZEROBOUNCE-DOMAIN", OptionEmailDomain, FamilyEmail},
	{"@ZEROBOUNCE-FIRSTNAME", OptionEmailFirstName, FamilyEmail},
	{"@ZEROBOUNCE-LASTNAME", OptionEmailLastName, FamilyEmail},
	{"@ZEROBOUNCE-GENDER", OptionEmailGender, FamilyEmail},
	{"@ZEROBOUNCE-CITY", OptionEmailCity, FamilyEmail},
	{"@ZEROBOUNCE-REGION", OptionEmailRegion, FamilyEmail},
	{"@ZEROBOUNCE-COUNTRY", OptionEmailCountry, FamilyEmail},

	{"@NUMVERIFY-VALID", OptionPhoneValid, FamilyPhone},
	{"@NUMVERIFY-INTERNATIONAL", OptionPhoneInternational, FamilyPhone},
	{"@NUMVERIFY-LOCAL", OptionPhoneLocal, FamilyPhone},
	{"@NUMVERIFY-COUNTRY-PREFIX", OptionPhoneCountryPrefix, FamilyPhone},
	{"@NUMVERIFY-COUNTRY-CODE", OptionPhoneCountryCode, FamilyPhone},
	{"@NUMVERIFY-COUNTRY-NAME", OptionPhoneCountryName, FamilyPhone},
	{"@NUMVERIFY-LOCATION", OptionPhoneLocation, FamilyPhone},
	{"@NUMVERIFY-CARRIER", OptionPhoneCarrier, FamilyPhone},
	{"@NUMVERIFY-LINE-TYPE", OptionPhoneLineType, FamilyPhone},
}

var (
	byTag    = make(map[Tag]entry, len(table))
	byOption = make(map[DataOption]entry, len(table))
)

func init() {
	for _, e := range table {
		byTag[e.tag] = e
		byOption[e.option] = e
	}
}

// Tags returns every known tag in resolution order.
func Tags() []Tag {
	out := make([]Tag, len(table))
	for i, e := range table {
		out[i] = e.tag
	}
	return out
}

// Options returns every known data option in table order.
func Options() []DataOption {
	out := make([]DataOption, len(table))
	for i, e := range table {
		out[i] = e.option
	}
	return out
}

// OptionsIn returns the options of one family in table order.
func OptionsIn(f Family) []DataOption {
	var out []DataOption
	for _, e := range table {
		if e.family == f {
			out = append(out, e.option)
		}
	}
	return out
}

// Lookup returns the data option bound to tag. Tags are matched
// case-insensitively since annotations are free text.
func Lookup(tag Tag) (DataOption, bool) {
	e, ok := byTag[Tag(strings.ToUpper(strings.TrimSpace(string(tag))))]
	return e.option, ok
}

// TagFor returns the tag that resolves to option.
func TagFor(option DataOption) (Tag, bool) {
	e, ok := byOption[option]
	return e.tag, ok
}

// Known reports whether option is part of the table.
func Known(option DataOption) bool {
	_, ok := byOption[option]
	return ok
}

// FamilyOf returns the family of option, or "" for unknown options.
func FamilyOf(option DataOption) Family {
	return byOption[option].family
}

// Deferred reports whether the value of option is only known after a
// client-side validation step.
func Deferred(option DataOption) bool {
	return FamilyOf(option) == FamilyEmail
}

// Validation reports whether option is sourced from an external validation
// provider (email or phone).
func Validation(option DataOption) bool {
	f := FamilyOf(option)
	return f == FamilyEmail || f == FamilyPhone
}
