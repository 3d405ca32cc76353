// Package memory implements the storage ports with mutex-guarded maps.
// It backs demo mode (STORE_DRIVER=memory) and tests. Values are copied on
// the way in and out, so callers never share state with the store.
package memory
