package shader

// ChunkNoise is the built-in chunk providing oxy_noise3, a smooth 3D value noise in [-1, 1].
const ChunkNoise = "noise"

const noiseChunk = `fn oxy_hash3(p: vec3<f32>) -> f32 {
    return fract(sin(dot(p, vec3<f32>(127.1, 311.7, 74.7))) * 43758.5453);
}

fn oxy_noise3(p: vec3<f32>) -> f32 {
    let i = floor(p);
    let f = fract(p);
    let u = f * f * (vec3<f32>(3.0) - 2.0 * f);
    let n000 = oxy_hash3(i);
    let n100 = oxy_hash3(i + vec3<f32>(1.0, 0.0, 0.0));
    let n010 = oxy_hash3(i + vec3<f32>(0.0, 1.0, 0.0));
    let n110 = oxy_hash3(i + vec3<f32>(1.0, 1.0, 0.0));
    let n001 = oxy_hash3(i + vec3<f32>(0.0, 0.0, 1.0));
    let n101 = oxy_hash3(i + vec3<f32>(1.0, 0.0, 1.0));
    let n011 = oxy_hash3(i + vec3<f32>(0.0, 1.0, 1.0));
    let n111 = oxy_hash3(i + vec3<f32>(1.0, 1.0, 1.0));
    let x00 = mix(n000, n100, u.x);
    let x10 = mix(n010, n110, u.x);
    let x01 = mix(n001, n101, u.x);
    let x11 = mix(n011, n111, u.x);
    return mix(mix(x00, x10, u.y), mix(x01, x11, u.y), u.z) * 2.0 - 1.0;
}`

// Uniform names read by the standard template. Materials register them before linking.
const (
	UniformViewProjection = "uViewProjection"
	UniformCameraPosition = "uCameraPosition"
	UniformLightDirection = "uLightDirection"
	UniformLightColor     = "uLightColor"
	UniformAmbientColor   = "uAmbientColor"
)

// Parameter names read by the standard template, supplied per submission.
const (
	ParamRoughness = "roughness"
	ParamMetalness = "metalness"
)

const standardVertex = `struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) normal: vec3<f32>,
};

//@oxy:anchor common_pars
//@oxy:anchor displacementmap_pars_vertex

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var transformed = in.position;
    var object_normal = in.normal;
    //@oxy:anchor displacementmap_vertex
    var out: VertexOutput;
    out.world = transformed;
    out.normal = normalize(object_normal);
    out.uv = in.position.xy * 0.5 + vec2<f32>(0.5);
    out.position = params.uViewProjection * vec4<f32>(transformed, 1.0);
    return out;
}
`

const standardFragment = `//@oxy:anchor bumpmap_pars_fragment

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    var diffuse_color = vec4<f32>(1.0);
    //@oxy:anchor color_fragment
    var normal = normalize(in.normal);
    //@oxy:anchor normal_fragment_maps
    let light_dir = normalize(params.uLightDirection.xyz);
    let view_dir = normalize(params.uCameraPosition.xyz - in.world);
    let half_dir = normalize(light_dir + view_dir);
    let n_dot_l = max(dot(normal, light_dir), 0.0);
    let shininess = mix(256.0, 4.0, params.roughness);
    let highlight = pow(max(dot(normal, half_dir), 0.0), shininess) * (1.0 - params.roughness);
    let specular = mix(vec3<f32>(0.04), diffuse_color.rgb, params.metalness);
    let albedo = diffuse_color.rgb * (1.0 - params.metalness);
    let ambient = params.uAmbientColor.rgb * params.uAmbientColor.w * albedo;
    let direct = params.uLightColor.rgb * params.uLightColor.w * (albedo * n_dot_l + specular * highlight);
    return vec4<f32>(ambient + direct, diffuse_color.a);
}
`

// StandardTemplate returns the lit standard material template with every registered anchor
// declared. The vertex stage reads interleaved position and normal attributes.
//
// Returns:
//   - Source: the annotated template
func StandardTemplate() Source {
	return Source{Vertex: standardVertex, Fragment: standardFragment}
}
