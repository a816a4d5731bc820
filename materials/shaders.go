package materials

// MaxPointLights and MaxDirectionalLights size the light arrays of the
// fragment stage.
const (
	MaxPointLights       = 8
	MaxDirectionalLights = 8
)

// Names of the plain uniforms and uniform blocks resolved at construction.
const (
	UniformNumLights            = "numLights"
	UniformNumDirectionalLights = "numDirectionalLights"

	BlockModelMatrices     = "modelMatrices"
	BlockSceneMatrices     = "sceneMatrices"
	BlockMaterial          = "materialBuffer"
	BlockPointLights       = "pointLightsBuffer"
	BlockDirectionalLights = "directionalLightsBuffer"
)

const vertexShaderSource = `#version 410 core

layout (std140) uniform modelMatrices {
    mat4 modelMatrix;
    mat4 normalMatrix;
};

layout (std140) uniform sceneMatrices {
    mat4 viewMatrix;
    mat4 projectionMatrix;
};

layout (location = 0) in vec3 position;
layout (location = 1) in vec3 normal;
layout (location = 2) in vec2 uv;
layout (location = 3) in vec3 tangent;
layout (location = 4) in vec3 bitangent;

out vec3 vPosViewSpace;
out vec3 vNormalViewSpace;
out vec2 vUv;
out mat3 TBN;

void main() {
    mat4 modelView = viewMatrix * modelMatrix;
    mat3 mv3 = mat3(modelView);

    vec3 n = mv3 * normalize(normal);
    vec3 t = mv3 * normalize(tangent);
    vec3 b = mv3 * normalize(bitangent);

    // View space to tangent space; valid without non-uniform scale.
    TBN = transpose(mat3(t, b, n));

    vNormalViewSpace = n;
    vPosViewSpace = vec3(modelView * vec4(position, 1.0));
    vUv = uv;
    gl_Position = projectionMatrix * modelView * vec4(position, 1.0);
}
`

const fragmentShaderSource = `#version 410 core

const int MAX_POINT_LIGHTS = 8;
const int MAX_DIRECTIONAL_LIGHTS = 8;

struct PointLight {
    vec3 positionViewSpace;
    vec4 color;
    float intensity;
};

struct DirectionalLight {
    vec3 directionViewSpace;
    vec4 color;
    float intensity;
};

layout (std140) uniform materialBuffer {
    vec4 mambient;            // 0
    vec4 mdiffuse;            // 16
    vec4 mspecular;           // 32
    float specularExponent;   // 48
    float bumpIntensity;      // 52
    bool hasDiffuseMap;       // 56
    bool hasNormalMap;        // 60
    bool hasSpecularMap;      // 64
    bool hasDissolveMap;      // 68
    bool displayNormalMap;    // 72
    bool displaySpecularMap;  // 76
    float texLod;             // 80
};

layout (std140) uniform pointLightsBuffer {
    PointLight pointLights[MAX_POINT_LIGHTS];
};

layout (std140) uniform directionalLightsBuffer {
    DirectionalLight directionalLights[MAX_DIRECTIONAL_LIGHTS];
};

uniform int numLights;
uniform int numDirectionalLights;

uniform sampler2D textureMap;
uniform sampler2D bumpMap;
uniform sampler2D specularMap;
uniform sampler2D dissolveMap;

in vec3 vPosViewSpace;
in vec3 vNormalViewSpace;
in vec2 vUv;
in mat3 TBN;

out vec4 outColor;

const vec3 Ia = vec3(0.2);
const vec3 Id = vec3(1.0);
const vec3 Is = vec3(1.0);

void light(vec3 l, vec3 vPos, vec3 norm, vec2 st, out vec3 ambient, out vec3 diffuse, out vec3 spec) {
    vec3 n = norm;
    vec3 v = -vPos;

    if (hasNormalMap) {
        l = normalize(TBN * l);
        v = normalize(TBN * v);

        vec3 bn = texture(bumpMap, st).rgb * 2.0 - 1.0;
        bn.xy *= bumpIntensity;
        n = normalize(bn);
    } else {
        l = normalize(l);
        v = normalize(v);
        n = normalize(n);
    }

    ambient = Ia * mambient.xyz;
    diffuse = vec3(0.0);
    spec = vec3(0.0);

    float intensity = max(dot(n, l), 0.0);
    if (intensity > 0.0) {
        diffuse = Id * mdiffuse.xyz * intensity;
        vec3 h = normalize(l + v);
        spec = Is * vec3(1.0) * pow(max(dot(h, n), 0.0), specularExponent);
    }
}

void main() {
    vec2 st = vec2(vUv.x, 1.0 - vUv.y);

    if (hasDissolveMap && texture(dissolveMap, st).r < 0.001) {
        discard;
    }

    vec3 ambientSum = vec3(0.0);
    vec3 diffuseSum = vec3(0.0);
    vec3 specSum = vec3(0.0);
    vec3 ambient, diffuse, spec;

    for (int i = 0; i < numLights; ++i) {
        light(pointLights[i].positionViewSpace - vPosViewSpace, vPosViewSpace, vNormalViewSpace, st, ambient, diffuse, spec);
        ambientSum += ambient;
        diffuseSum += diffuse;
        specSum += spec;
    }

    for (int i = 0; i < numDirectionalLights; ++i) {
        light(directionalLights[i].directionViewSpace, vPosViewSpace, vNormalViewSpace, st, ambient, diffuse, spec);
        ambientSum += ambient;
        diffuseSum += diffuse;
        specSum += spec;
    }

    // Normalized by point-light count only. TODO: this looks wrong with
    // directional lights present; normalize over all lights once the
    // reference renders are regenerated.
    if (numLights > 0) {
        ambientSum /= float(numLights);
    }

    if (displayNormalMap && hasNormalMap) {
        outColor = texture(bumpMap, st);
    } else if (displaySpecularMap && hasSpecularMap) {
        outColor = texture(specularMap, st);
    } else if (hasDiffuseMap) {
        vec4 texColor = textureLod(textureMap, st, texLod);
        vec4 specColor = vec4(0.0);
        if (hasSpecularMap) {
            specColor = texture(specularMap, st);
        }
        outColor = vec4(ambientSum + diffuseSum, 1.0) * texColor + vec4(specSum, 1.0) * specColor;
    } else {
        outColor = vec4(1.0, 0.0, 0.0, 1.0);
    }
}
`

// VertexShaderSource returns the GLSL source of the vertex stage.
func VertexShaderSource() string { return vertexShaderSource }

// FragmentShaderSource returns the GLSL source of the fragment stage.
func FragmentShaderSource() string { return fragmentShaderSource }
