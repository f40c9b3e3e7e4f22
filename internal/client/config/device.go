package config

import "os"

var hostname = os.Hostname

func defaultDeviceID() string {
	name, err := hostname()
	if err != nil || name == "" {
		return "cli"
	}
	return "cli-" + name
}
