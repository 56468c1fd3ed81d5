package stack

import (
	workshop "github.com/dineshpithiya/cdk-workshop"
	"github.com/dineshpithiya/cdk-workshop/resources/lambda"
)

// Logical IDs of the layers demo.
const (
	NodeJSLayer1    workshop.LogicalID = "CommonNodeJsUtilsL1"
	NodeJSLayer2    workshop.LogicalID = "CommonNodeJsUtilsL2"
	NodeJSLayerTest workshop.LogicalID = "NodeJsLayerTest"
	PythonLayer1    workshop.LogicalID = "CommonPythonUtilsL1"
	PythonLayer2    workshop.LogicalID = "CommonPythonUtilsL2"
	PythonLayerTest workshop.LogicalID = "PythonLayerTest"
)

// layerTimeout is the timeout of both demo functions, in seconds.
const layerTimeout = 30

type layerSpec struct {
	id          workshop.LogicalID
	assetID     string
	description string
}

func (b *workshopBuilder) addLayers() {
	b.layeredFunction(lambda.RuntimeNodeJS16, []layerSpec{
		{NodeJSLayer1, AssetNodeJSLayer1, "axios and lodash npm library"},
		{NodeJSLayer2, AssetNodeJSLayer2, "Custom utility"},
	}, NodeJSLayerTest, &lambda.Function{
		FunctionName: "nodeJsLayerTest",
		Handler:      "index.handler",
		Code:         b.code(AssetNodeJSHandler),
		Environment: &lambda.Function_Environment{
			Variables: map[string]string{"URL": "https://google.com"},
		},
		Timeout: layerTimeout,
	})

	b.layeredFunction(lambda.RuntimePython310, []layerSpec{
		{PythonLayer1, AssetPythonLayer1, "fastjsonschema and requests pip library"},
		{PythonLayer2, AssetPythonLayer2, "custom utility"},
	}, PythonLayerTest, &lambda.Function{
		FunctionName: "pythonLayerTest",
		Handler:      "index.handler",
		Code:         b.code(AssetPythonHandler),
		Timeout:      layerTimeout,
	})
}

// layeredFunction adds the layers, then fn with the layers attached in order.
func (b *workshopBuilder) layeredFunction(runtime string, layers []layerSpec, id workshop.LogicalID, fn *lambda.Function) {
	for _, l := range layers {
		b.add(l.id, &lambda.LayerVersion{
			Description: l.description,
			Content: lambda.LayerVersion_Content{
				S3Bucket: b.assetBucket(),
				S3Key:    b.assetKey(l.assetID),
			},
			CompatibleRuntimes: []string{runtime},
		}, WithRemovalPolicy(workshop.RemovalDestroy))
		fn.Layers = append(fn.Layers, l.id.Ref())
	}

	fn.Runtime = runtime
	b.function(id, fn)
}
