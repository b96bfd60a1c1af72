// Package main benchmarks spillkv's LRU memory usage.
package main

import (
	"flag"
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/spillkv"
)

var keepAlive any //nolint:unused // prevents compiler from optimizing away allocations in benchmarks

func main() {
	_ = flag.Int("iter", 100000, "unused in this mode")
	capacity := flag.Int("cap", 25000, "capacity")
	valSize := flag.Int("valSize", 1024, "value size")
	flag.Parse()

	runtime.GC()
	debug.FreeOSMemory()

	backing := spillkv.NewMapStore[string, []byte]()
	cache := spillkv.New[string, []byte](float64(*capacity), backing)

	for i := range *capacity {
		key := "key-" + strconv.Itoa(i)
		val := make([]byte, *valSize)
		if err := cache.Put(key, val); err != nil {
			fmt.Printf(`{"name":"spillkv", "error":%q}`, err.Error())
			return
		}
	}

	keepAlive = cache

	runtime.GC()
	time.Sleep(100 * time.Millisecond)
	runtime.GC()
	debug.FreeOSMemory()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	fmt.Printf(`{"name":"spillkv", "items":%d, "bytes":%d}`, cache.Len(), mem.Alloc)
}
