//go:build !linux && !darwin

package probe

import "github.com/ja7ad/procwatch/pkg/process"

func platformBasic(int32, *process.Record) bool { return false }
