package app

import (
	"github.com/vk/patterngridgo/internal/registry"
	"github.com/vk/patterngridgo/modifiers/concat"
	"github.com/vk/patterngridgo/modifiers/invert"
	"github.com/vk/patterngridgo/modifiers/quantize"
	"github.com/vk/patterngridgo/modifiers/reverse"
	"github.com/vk/patterngridgo/modifiers/scaleduration"
	"github.com/vk/patterngridgo/modifiers/scalevelocity"
	"github.com/vk/patterngridgo/modifiers/setduration"
	"github.com/vk/patterngridgo/modifiers/setvelocity"
	"github.com/vk/patterngridgo/modifiers/stretch"
	"github.com/vk/patterngridgo/modifiers/transpose"
	"github.com/vk/patterngridgo/modifiers/trim"
	"github.com/vk/patterngridgo/modifiers/union"
	"github.com/vk/patterngridgo/modifiers/view"
)

// coreModules is the definitive list of all modifier modules that are
// compiled into the patterngridgo binary.
var coreModules = []registry.Module{
	&concat.Module{},
	&invert.Module{},
	&quantize.Module{},
	&reverse.Module{},
	&scaleduration.Module{},
	&scalevelocity.Module{},
	&setduration.Module{},
	&setvelocity.Module{},
	&stretch.Module{},
	&transpose.Module{},
	&trim.Module{},
	&union.Module{},
	&view.Module{},
}
