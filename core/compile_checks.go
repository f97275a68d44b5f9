package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ GrantService   = (*Service)(nil)
	_ ValidationHook = ValidationHookFunc(nil)

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
