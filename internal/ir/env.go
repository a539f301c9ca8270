package ir

import (
	"fmt"
	"strings"
)

// TargetEnv names the instruction-set dialect and version a module is
// checked against. The zero value is not a valid environment.
type TargetEnv uint8

const (
	EnvUniversal1_0 TargetEnv = iota + 1
	EnvUniversal1_1
	EnvUniversal1_2
	EnvUniversal1_3
	EnvUniversal1_4
	EnvUniversal1_5
	EnvUniversal1_6
	EnvVulkan1_0
	EnvVulkan1_1
	EnvVulkan1_2
	EnvVulkan1_3
)

// DefaultTargetEnv is used when no environment is configured.
const DefaultTargetEnv = EnvUniversal1_3

type envInfo struct {
	name  string
	major uint32
	minor uint32
}

var envs = map[TargetEnv]envInfo{
	EnvUniversal1_0: {"spv1.0", 1, 0},
	EnvUniversal1_1: {"spv1.1", 1, 1},
	EnvUniversal1_2: {"spv1.2", 1, 2},
	EnvUniversal1_3: {"spv1.3", 1, 3},
	EnvUniversal1_4: {"spv1.4", 1, 4},
	EnvUniversal1_5: {"spv1.5", 1, 5},
	EnvUniversal1_6: {"spv1.6", 1, 6},
	EnvVulkan1_0:    {"vulkan1.0", 1, 0},
	EnvVulkan1_1:    {"vulkan1.1", 1, 3},
	EnvVulkan1_2:    {"vulkan1.2", 1, 5},
	EnvVulkan1_3:    {"vulkan1.3", 1, 6},
}

// String returns the spirv-val spelling of the environment.
func (e TargetEnv) String() string {
	if info, ok := envs[e]; ok {
		return info.name
	}
	return fmt.Sprintf("env(%d)", uint8(e))
}

// IsValid reports whether e is a known environment.
func (e TargetEnv) IsValid() bool {
	_, ok := envs[e]
	return ok
}

// ParseTargetEnv accepts the spirv-val spelling (spv1.3, vulkan1.1) and the
// long form universal1.3.
func ParseTargetEnv(s string) (TargetEnv, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Replace(s, "universal", "spv", 1)
	for e, info := range envs {
		if info.name == s {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown target environment %q", s)
}

// SPIRVVersion returns the header version word for the newest SPIR-V
// version the environment accepts.
func (e TargetEnv) SPIRVVersion() uint32 {
	info := envs[e]
	return info.major<<16 | info.minor<<8
}

// VersionString renders a header version word as major.minor.
func VersionString(word uint32) string {
	return fmt.Sprintf("%d.%d", word>>16&0xff, word>>8&0xff)
}
