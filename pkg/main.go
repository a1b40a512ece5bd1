package main

import (
	"os"

	"yandex-monitoring-grafana-plugin/pkg/plugin"
	"yandex-monitoring-grafana-plugin/pkg/utils"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
	"github.com/grafana/grafana-plugin-sdk-go/backend/datasource"
)

func main() {
	// Start listening to requests sent from Grafana. Manage creates one
	// Datasource per data source configuration and disposes of it when the
	// configuration changes.
	if err := datasource.Manage(utils.PluginID, plugin.NewDatasource, datasource.ManageOpts{}); err != nil {
		backend.Logger.Error(err.Error())
		os.Exit(1)
	}
}
