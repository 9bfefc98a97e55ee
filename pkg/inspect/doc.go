// Package inspect provides human-facing views of commands.
//
// The inspect package offers a unified interface for:
//   - Building commands from YAML command documents
//   - Resolving command names and tags
//   - Formatting decoded commands, hex dumps and the tag table for display
//
// A command document names the command and lists its fields by their YAML
// keys:
//
//	command: ProvisioningWifiConfig
//	fields:
//	  ssid: home
//	  pwd: s3cret
package inspect
