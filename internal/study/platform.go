package study

import (
	"errors"
	"fmt"
	"strings"
)

type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
)

// ErrCapabilityUnavailable is returned for device features the platform lacks,
// such as the microphone or camera on web.
var ErrCapabilityUnavailable = errors.New("capability not available on this platform")

func ParsePlatform(value string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(value))) {
	case PlatformIOS:
		return PlatformIOS, nil
	case PlatformAndroid:
		return PlatformAndroid, nil
	case PlatformWeb:
		return PlatformWeb, nil
	default:
		return "", fmt.Errorf("unknown platform %q", value)
	}
}

func (p Platform) HasMicrophone() bool {
	return p != PlatformWeb
}

func (p Platform) HasCamera() bool {
	return p != PlatformWeb
}

func (p Platform) CanSpeak() bool {
	return p != PlatformWeb
}
