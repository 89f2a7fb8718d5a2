package workflow

// widgetSequences maps well-known node classes to the input names their
// widget values bind to, positionally. Compilation consults this table so
// that widget lists with hidden slots (seed modes, upload flags) do not
// shift every following value by one. Unknown classes fall back to pure
// positional consumption.
var widgetSequences = map[string][]string{
	"KSampler": {"seed", "seed_mode", "steps", "cfg", "sampler_name", "scheduler", "denoise"},
	"BNK_TiledKSampler": {
		"seed", "seed_mode", "tile_width", "tile_height", "tiling_strategy",
		"steps", "cfg", "sampler_name", "scheduler", "denoise",
	},
	"DZ_Face_Detailer": {
		"seed", "seed_mode", "steps", "cfg", "sampler_name", "scheduler", "denoise",
		"mask_blur", "mask_type", "mask_control", "dilate_mask_value", "erode_mask_value",
	},
	"ImageScale":             {"upscale_method", "width", "height", "crop"},
	"ImageScaleBy":           {"upscale_method", "scale_by"},
	"PrimitiveInt":           {"value"},
	"PrimitiveFloat":         {"value"},
	"PrimitiveBoolean":       {"value"},
	"CheckpointLoaderSimple": {"ckpt_name"},
	"UpscaleModelLoader":     {"model_name"},
	"LoadImage":              {"image", "upload"},
	"SaveImage":              {"filename_prefix"},
	"ImpactCompare":          {"cmp"},
	"ImpactLogicalOperators": {"operator"},
	"EmptyLatentImage":       {"width", "height", "batch_size"},
	"CLIPTextEncode":         {"text"},
}

// widgetMap binds a node's widget values to input names using the class
// table. Returns nil for unknown classes or empty widget lists.
func widgetMap(class string, widgets []any) map[string]any {
	if class == "" || len(widgets) == 0 {
		return nil
	}
	seq, ok := widgetSequences[class]
	if !ok {
		return nil
	}
	m := make(map[string]any, len(seq))
	for i, name := range seq {
		if i >= len(widgets) {
			break
		}
		m[name] = widgets[i]
	}
	return m
}
