package config

import "github.com/hashicorp/hcl/v2"

// Data is the raw HCL config of a store block.
// It contains the type of store, as well as the raw HCL body which the newly
// instantiated store must parse into the appropriate type
type Data struct {
	Type       string
	ConfigData []byte
	Filename   string
	Pos        hcl.Pos
}

func NewData(storeType string, configData []byte) *Data {
	return &Data{
		Type:       storeType,
		ConfigData: configData,
		Pos:        hcl.InitialPos,
	}
}
