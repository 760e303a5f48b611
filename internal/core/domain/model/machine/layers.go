package machine

import "artfactory/internal/core/domain/model/kernel"

const (
	ParamPrompt         = "prompt"
	ParamNegativePrompt = "negative_prompt"
	ParamWidth          = "width"
	ParamHeight         = "height"
	ParamNumImages      = "num_images"
	ParamDuration       = "duration"
	ParamSeed           = "seed"

	MaxPromptLength = 4000
)

// BaseRules apply to every machine.
func BaseRules() []Rule {
	return []Rule{
		{Name: ParamPrompt, Kind: KindString, Required: true, MaxLength: MaxPromptLength},
		{Name: ParamNegativePrompt, Kind: KindString, MaxLength: 2000},
	}
}

// MediaTypeRules refine the base layer for a media type.
func MediaTypeRules(mt kernel.MediaType) []Rule {
	switch mt {
	case kernel.MediaTypeImage:
		return []Rule{
			{Name: ParamWidth, Kind: KindInteger, Min: Bound(64), Max: Bound(2048)},
			{Name: ParamHeight, Kind: KindInteger, Min: Bound(64), Max: Bound(2048)},
			{Name: ParamNumImages, Kind: KindInteger, Min: Bound(1), Max: Bound(4)},
		}
	case kernel.MediaTypeVideo:
		return []Rule{
			{Name: ParamDuration, Kind: KindNumber, Min: Bound(1), Max: Bound(20)},
			{Name: "fps", Kind: KindInteger, Min: Bound(1), Max: Bound(60)},
			{Name: "aspect_ratio", Kind: KindEnum, Options: []string{"16:9", "9:16", "1:1"}},
		}
	case kernel.MediaTypeAudio:
		return []Rule{
			{Name: ParamDuration, Kind: KindNumber, Min: Bound(1), Max: Bound(300)},
		}
	default:
		return nil
	}
}

// ProviderRules refine the media layer with provider specific knobs.
func ProviderRules(p Provider) []Rule {
	seed := Rule{Name: ParamSeed, Kind: KindInteger, Min: Bound(0)}

	switch p {
	case ProviderFal:
		return []Rule{
			seed,
			{Name: "enable_safety_checker", Kind: KindBoolean},
			{Name: "num_inference_steps", Kind: KindInteger, Min: Bound(1), Max: Bound(50)},
			{Name: "guidance_scale", Kind: KindNumber, Min: Bound(0), Max: Bound(20)},
		}
	case ProviderReplicate:
		return []Rule{
			seed,
			{Name: "output_format", Kind: KindEnum, Options: []string{"webp", "png", "jpg"}},
			{Name: "num_inference_steps", Kind: KindInteger, Min: Bound(1), Max: Bound(50)},
		}
	case ProviderCivitai:
		return []Rule{
			seed,
			{Name: "steps", Kind: KindInteger, Min: Bound(1), Max: Bound(150)},
			{Name: "cfg_scale", Kind: KindNumber, Min: Bound(1), Max: Bound(30)},
			{Name: "scheduler", Kind: KindString, MaxLength: 64},
			{Name: "clip_skip", Kind: KindInteger, Min: Bound(1), Max: Bound(12)},
		}
	default:
		return nil
	}
}
