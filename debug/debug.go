package debug

import (
	"os"
	"strconv"
)

type debug struct {
	Match     bool
	Normalize bool
	Apply     bool
	Diff      bool
	Compose   bool
	Op        bool
}

var d *debug

func init() {
	d = &debug{}
	d.Match = boolEnv("MQ_DEBUG_MATCH")
	d.Normalize = boolEnv("MQ_DEBUG_NORMALIZE")
	d.Apply = boolEnv("MQ_DEBUG_APPLY")
	d.Diff = boolEnv("MQ_DEBUG_DIFF")
	d.Compose = boolEnv("MQ_DEBUG_COMPOSE")
	d.Op = boolEnv("MQ_DEBUG_OP")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Match() bool {
	return d.Match
}
func Normalize() bool {
	return d.Normalize
}
func Apply() bool {
	return d.Apply
}
func Diff() bool {
	return d.Diff
}
func Compose() bool {
	return d.Compose
}
func Op() bool {
	return d.Op
}
