package logging

import (
	"time"
)

// Field is a key-value pair attached to a log entry
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field          { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, Value: value} }
func Any(key string, value any) Field         { return Field{Key: key, Value: value} }

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Component(name string) Field   { return String("component", name) }
func Operation(op string) Field     { return String("operation", op) }
func Latency(d time.Duration) Field { return Duration("latency", d) }
func Path(p string) Field           { return String("path", p) }

// Louvain helpers

func Session(id string) Field    { return String("session_id", id) }
func Node(id string) Field       { return String("node", id) }
func NodeIndex(i int) Field      { return Int("node_index", i) }
func Community(c int) Field      { return Int("community", c) }
func Pass(n int) Field           { return Int("pass", n) }
func LevelIndex(n int) Field     { return Int("level", n) }
func Gain(g float64) Field       { return Float64("gain", g) }
func Modularity(q float64) Field { return Float64("modularity", q) }
func Ticks(n int) Field          { return Int("ticks", n) }
