package window

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework QuartzCore -framework Metal

#import <Cocoa/Cocoa.h>
#import <QuartzCore/CAMetalLayer.h>
#import <Metal/Metal.h>

void* attachMetalLayer(void* nsWindow) {
    if (nsWindow == NULL) {
        return NULL;
    }

    NSWindow* window = (__bridge NSWindow*)nsWindow;
    NSView* view = [window contentView];
    if (view == nil) {
        return NULL;
    }

    [view setWantsLayer:YES];

    CAMetalLayer* layer = [CAMetalLayer layer];
    layer.device = MTLCreateSystemDefaultDevice();
    layer.pixelFormat = MTLPixelFormatBGRA8Unorm;
    layer.framebufferOnly = YES;
    layer.frame = view.bounds;
    layer.contentsScale = [window backingScaleFactor];

    [view setLayer:layer];
    return (__bridge void*)layer;
}
*/
import "C"

import (
	"errors"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/rajveermalviya/go-webgpu/wgpu"
)

func createSurface(instance *wgpu.Instance, win *glfw.Window) (*wgpu.Surface, error) {
	nsWindow := win.GetCocoaWindow()
	if nsWindow == nil {
		return nil, errors.New("window: no Cocoa window")
	}

	layer := C.attachMetalLayer(nsWindow)
	if layer == nil {
		return nil, errors.New("window: Metal layer setup failed")
	}

	surface := instance.CreateSurface(&wgpu.SurfaceDescriptor{
		Label: "window_surface",
		MetalLayer: &wgpu.SurfaceDescriptorFromMetalLayer{
			Layer: unsafe.Pointer(layer),
		},
	})
	if surface == nil {
		return nil, errors.New("window: surface creation failed")
	}
	return surface, nil
}
