package vkcube

import "github.com/pkg/errors"

// pipelineState is the render pass, layouts, pipeline and descriptor pool of
// one swapchain generation.
type pipelineState struct {
	RenderPass     RenderPass
	SetLayout      DescriptorSetLayout
	PipelineLayout PipelineLayout
	Cache          PipelineCache
	Pipeline       Pipeline
	DescriptorPool DescriptorPool
}

func newPipelineState(d Driver, colorFormat Format, imageCount, textureCount uint32, assets Assets) (_ *pipelineState, err error) {
	p := &pipelineState{}
	defer func() {
		if err != nil {
			p.release(d)
		}
	}()

	if p.SetLayout, err = d.CreateDescriptorSetLayout(textureCount); err != nil {
		return nil, errors.Wrap(err, "create descriptor set layout")
	}
	if p.PipelineLayout, err = d.CreatePipelineLayout(p.SetLayout); err != nil {
		return nil, errors.Wrap(err, "create pipeline layout")
	}
	if p.RenderPass, err = d.CreateRenderPass(RenderPassInfo{ColorFormat: colorFormat, DepthFormat: DepthFormat}); err != nil {
		return nil, errors.Wrap(err, "create render pass")
	}
	if p.Cache, err = d.CreatePipelineCache(); err != nil {
		return nil, errors.Wrap(err, "create pipeline cache")
	}
	if p.Pipeline, err = d.CreateGraphicsPipeline(PipelineInfo{
		Layout:         p.PipelineLayout,
		RenderPass:     p.RenderPass,
		Cache:          p.Cache,
		VertexShader:   assets.VertexShader,
		FragmentShader: assets.FragmentShader,
	}); err != nil {
		return nil, errors.Wrap(err, "create graphics pipeline")
	}
	if p.DescriptorPool, err = d.CreateDescriptorPool(imageCount, textureCount); err != nil {
		return nil, errors.Wrap(err, "create descriptor pool")
	}
	return p, nil
}

// release destroys in reverse dependency order. Descriptor sets go with
// their pool.
func (p *pipelineState) release(d Driver) {
	if p.DescriptorPool != 0 {
		d.DestroyDescriptorPool(p.DescriptorPool)
	}
	if p.Pipeline != 0 {
		d.DestroyPipeline(p.Pipeline)
	}
	if p.Cache != 0 {
		d.DestroyPipelineCache(p.Cache)
	}
	if p.RenderPass != 0 {
		d.DestroyRenderPass(p.RenderPass)
	}
	if p.PipelineLayout != 0 {
		d.DestroyPipelineLayout(p.PipelineLayout)
	}
	if p.SetLayout != 0 {
		d.DestroyDescriptorSetLayout(p.SetLayout)
	}
	*p = pipelineState{}
}
