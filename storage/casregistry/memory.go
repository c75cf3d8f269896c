package casregistry

import (
	"flag"

	"xdao.co/rdfc/storage"
)

func init() {
	MustRegister(Backend{
		Name:          "memory",
		Description:   "In-process CAS; contents are lost on exit",
		Usage:         UsageDaemon,
		RegisterFlags: func(*flag.FlagSet) {},
		Open: func() (storage.CAS, func() error, error) {
			return storage.NewMemory(), nil, nil
		},
		OpenConfig: func(map[string]string) (storage.CAS, func() error, error) {
			return storage.NewMemory(), nil, nil
		},
	})
}
