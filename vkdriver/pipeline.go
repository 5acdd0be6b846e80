package vkdriver

import (
	"github.com/andewx/vkcube"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// CreateRenderPass creates a single subpass pass that clears a color
// attachment for presentation and a transient depth attachment.
func (d *Driver) CreateRenderPass(info vkcube.RenderPassInfo) (vkcube.RenderPass, error) {
	attachments := []vk.AttachmentDescription{{
		Format:         vk.Format(info.ColorFormat),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}, {
		Format:         vk.Format(info.DepthFormat),
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpDontCare,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
	}}
	colorReferences := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}
	depthReferences := []vk.AttachmentReference{{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}}
	subpasses := []vk.SubpassDescription{{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       colorReferences,
		PDepthStencilAttachment: &depthReferences[0],
	}}

	var pass vk.RenderPass
	ret := vk.CreateRenderPass(d.device, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      subpasses,
	}, nil, &pass)
	if isError(ret) {
		return 0, newError(ret)
	}
	return vkcube.RenderPass(d.renderPasses.put(pass)), nil
}

func (d *Driver) DestroyRenderPass(h vkcube.RenderPass) {
	if pass, ok := d.renderPasses.take(uint64(h)); ok {
		vk.DestroyRenderPass(d.device, pass, nil)
	}
}

// CreateDescriptorSetLayout binds the uniform buffer at 0 for the vertex stage
// and textureCount combined image samplers at 1 for the fragment stage.
func (d *Driver) CreateDescriptorSetLayout(textureCount uint32) (vkcube.DescriptorSetLayout, error) {
	bindings := []vk.DescriptorSetLayoutBinding{{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
	}, {
		Binding:         1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		DescriptorCount: textureCount,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
	}}
	var layout vk.DescriptorSetLayout
	ret := vk.CreateDescriptorSetLayout(d.device, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}, nil, &layout)
	if isError(ret) {
		return 0, newError(ret)
	}
	return vkcube.DescriptorSetLayout(d.setLayouts.put(layout)), nil
}

func (d *Driver) DestroyDescriptorSetLayout(h vkcube.DescriptorSetLayout) {
	if layout, ok := d.setLayouts.take(uint64(h)); ok {
		vk.DestroyDescriptorSetLayout(d.device, layout, nil)
	}
}

// CreatePipelineLayout creates a layout with a single descriptor set.
func (d *Driver) CreatePipelineLayout(setLayout vkcube.DescriptorSetLayout) (vkcube.PipelineLayout, error) {
	var layout vk.PipelineLayout
	ret := vk.CreatePipelineLayout(d.device, &vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{d.setLayouts.get(uint64(setLayout))},
	}, nil, &layout)
	if isError(ret) {
		return 0, newError(ret)
	}
	return vkcube.PipelineLayout(d.pipelineLayouts.put(layout)), nil
}

func (d *Driver) DestroyPipelineLayout(h vkcube.PipelineLayout) {
	if layout, ok := d.pipelineLayouts.take(uint64(h)); ok {
		vk.DestroyPipelineLayout(d.device, layout, nil)
	}
}

// CreatePipelineCache creates an empty pipeline cache.
func (d *Driver) CreatePipelineCache() (vkcube.PipelineCache, error) {
	var cache vk.PipelineCache
	ret := vk.CreatePipelineCache(d.device, &vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}, nil, &cache)
	if isError(ret) {
		return 0, newError(ret)
	}
	return vkcube.PipelineCache(d.caches.put(cache)), nil
}

func (d *Driver) DestroyPipelineCache(h vkcube.PipelineCache) {
	if cache, ok := d.caches.take(uint64(h)); ok {
		vk.DestroyPipelineCache(d.device, cache, nil)
	}
}

// loadShaderModule wraps SPIR-V bytecode. The module is only needed until the
// pipeline has been created.
func (d *Driver) loadShaderModule(code []byte) (vk.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return vk.NullShaderModule, errors.Errorf("vulkan: invalid SPIR-V size %d", len(code))
	}
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(d.device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32(code),
	}, nil, &module)
	if isError(ret) {
		return vk.NullShaderModule, newError(ret)
	}
	return module, nil
}

// CreateGraphicsPipeline builds the cube pipeline: no vertex input, triangle
// list, no culling, depth test less-or-equal, and dynamic viewport and scissor.
func (d *Driver) CreateGraphicsPipeline(info vkcube.PipelineInfo) (_ vkcube.Pipeline, err error) {
	vertexShader, err := d.loadShaderModule(info.VertexShader)
	if err != nil {
		return 0, errors.Wrap(err, "vertex shader")
	}
	defer vk.DestroyShaderModule(d.device, vertexShader, nil)
	fragmentShader, err := d.loadShaderModule(info.FragmentShader)
	if err != nil {
		return 0, errors.Wrap(err, "fragment shader")
	}
	defer vk.DestroyShaderModule(d.device, fragmentShader, nil)

	stencilOp := vk.StencilOpState{
		FailOp:    vk.StencilOpKeep,
		PassOp:    vk.StencilOpKeep,
		CompareOp: vk.CompareOpAlways,
	}
	pipelineInfos := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		Layout:     d.pipelineLayouts.get(uint64(info.Layout)),
		RenderPass: d.renderPasses.get(uint64(info.RenderPass)),
		StageCount: 2,
		PStages: []vk.PipelineShaderStageCreateInfo{{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: vertexShader,
			PName:  "main\x00",
		}, {
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: fragmentShader,
			PName:  "main\x00",
		}},
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
			DepthClampEnable:        vk.False,
			RasterizerDiscardEnable: vk.False,
			PolygonMode:             vk.PolygonModeFill,
			CullMode:                vk.CullModeFlags(vk.CullModeNone),
			FrontFace:               vk.FrontFaceClockwise,
			DepthBiasEnable:         vk.False,
			LineWidth:               1,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: 0xf,
				BlendEnable:    vk.False,
			}},
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PDepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:       vk.True,
			DepthWriteEnable:      vk.True,
			DepthCompareOp:        vk.CompareOpLessOrEqual,
			DepthBoundsTestEnable: vk.False,
			StencilTestEnable:     vk.False,
			Back:                  stencilOp,
			Front:                 stencilOp,
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates:    []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor},
		},
	}}

	pipelines := make([]vk.Pipeline, 1)
	ret := vk.CreateGraphicsPipelines(d.device, d.caches.get(uint64(info.Cache)), 1, pipelineInfos, nil, pipelines)
	if isError(ret) {
		return 0, newError(ret)
	}
	return vkcube.Pipeline(d.pipelines.put(pipelines[0])), nil
}

func (d *Driver) DestroyPipeline(h vkcube.Pipeline) {
	if pipeline, ok := d.pipelines.take(uint64(h)); ok {
		vk.DestroyPipeline(d.device, pipeline, nil)
	}
}

// CreateDescriptorPool sizes the pool for maxSets sets of the cube layout.
func (d *Driver) CreateDescriptorPool(maxSets, textureCount uint32) (vkcube.DescriptorPool, error) {
	var pool vk.DescriptorPool
	ret := vk.CreateDescriptorPool(d.device, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: 2,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: maxSets,
		}, {
			Type:            vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: maxSets * textureCount,
		}},
	}, nil, &pool)
	if isError(ret) {
		return 0, newError(ret)
	}
	return vkcube.DescriptorPool(d.descriptorPools.put(pool)), nil
}

// DestroyDescriptorPool destroys the pool and every set allocated from it.
func (d *Driver) DestroyDescriptorPool(h vkcube.DescriptorPool) {
	pool, ok := d.descriptorPools.take(uint64(h))
	if !ok {
		return
	}
	for _, set := range d.poolSets[h] {
		d.descriptorSets.take(uint64(set))
	}
	delete(d.poolSets, h)
	vk.DestroyDescriptorPool(d.device, pool, nil)
}

// AllocateDescriptorSet allocates one set from pool. Sets are freed with the
// pool.
func (d *Driver) AllocateDescriptorSet(pool vkcube.DescriptorPool, layout vkcube.DescriptorSetLayout) (vkcube.DescriptorSet, error) {
	var set vk.DescriptorSet
	ret := vk.AllocateDescriptorSets(d.device, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     d.descriptorPools.get(uint64(pool)),
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{d.setLayouts.get(uint64(layout))},
	}, &set)
	if isError(ret) {
		return 0, newError(ret)
	}
	h := vkcube.DescriptorSet(d.descriptorSets.put(set))
	d.poolSets[pool] = append(d.poolSets[pool], h)
	return h, nil
}

// UpdateDescriptorSet points binding 0 at the uniform buffer and binding 1 at
// the textures, which are expected in the shader read layout.
func (d *Driver) UpdateDescriptorSet(h vkcube.DescriptorSet, write vkcube.DescriptorWrite) {
	set := d.descriptorSets.get(uint64(h))
	images := make([]vk.DescriptorImageInfo, len(write.Textures))
	for i, tex := range write.Textures {
		images[i] = vk.DescriptorImageInfo{
			Sampler:     d.samplers.get(uint64(tex.Sampler)),
			ImageView:   d.views.get(uint64(tex.View)),
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}
	}
	writes := []vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          set,
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: d.buffers.get(uint64(write.Buffer)),
			Offset: 0,
			Range:  vk.DeviceSize(write.Range),
		}},
	}}
	if len(images) > 0 {
		writes = append(writes, vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      1,
			DescriptorCount: uint32(len(images)),
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			PImageInfo:      images,
		})
	}
	vk.UpdateDescriptorSets(d.device, uint32(len(writes)), writes, 0, nil)
}

// CreateFramebuffer binds the attachments of one swapchain image.
func (d *Driver) CreateFramebuffer(info vkcube.FramebufferInfo) (vkcube.Framebuffer, error) {
	attachments := make([]vk.ImageView, len(info.Attachments))
	for i, v := range info.Attachments {
		attachments[i] = d.views.get(uint64(v))
	}
	var fb vk.Framebuffer
	ret := vk.CreateFramebuffer(d.device, &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      d.renderPasses.get(uint64(info.RenderPass)),
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		Width:           info.Extent.Width,
		Height:          info.Extent.Height,
		Layers:          1,
	}, nil, &fb)
	if isError(ret) {
		return 0, newError(ret)
	}
	return vkcube.Framebuffer(d.framebuffers.put(fb)), nil
}

func (d *Driver) DestroyFramebuffer(h vkcube.Framebuffer) {
	if fb, ok := d.framebuffers.take(uint64(h)); ok {
		vk.DestroyFramebuffer(d.device, fb, nil)
	}
}
