package app

import (
	"github.com/specialistvlad/nodereg/internal/handlers"
	"github.com/specialistvlad/nodereg/modules/env_vars"
	"github.com/specialistvlad/nodereg/modules/file"
	"github.com/specialistvlad/nodereg/modules/http_request"
	"github.com/specialistvlad/nodereg/modules/print"
	"github.com/specialistvlad/nodereg/modules/socketio"
)

// coreModules is the definitive list of all handler modules that are
// compiled into the nodereg binary.
var coreModules = []handlers.Module{
	&env_vars.Module{},
	&file.Module{},
	&http_request.Module{},
	&print.Module{},
	&socketio.Module{},
}
