package shadow

import _ "embed"

// ModelShadowVertexSource transforms rigid casters into light clip space.
//
//go:embed assets/model_shadow.vert.wgsl
var ModelShadowVertexSource string

// SkinModelShadowVertexSource skins casters with up to four joints before the light transform.
//
//go:embed assets/skin_model_shadow.vert.wgsl
var SkinModelShadowVertexSource string

// ShadowFragmentSource is the empty fragment stage shared by both shadow programs.
//
//go:embed assets/shadow.frag.wgsl
var ShadowFragmentSource string
