package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"geo-pma/internal/feature"
	"geo-pma/internal/logger"
)

// Collections：六个图层解码后的记录
type Collections struct {
	Airports   []feature.Airport
	VORs       []feature.NavAid
	NDBs       []feature.NDB
	Waypoints  []feature.Waypoint
	Thresholds []feature.Threshold
	Runways    []feature.Runway
}

func load[T feature.Record](ctx context.Context, src Source, dst *[]T) func() error {
	return func() error {
		var zero T
		k := zero.Kind()
		body, err := src.Layer(ctx, k)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", k.Layer(), err)
		}
		xs, err := feature.DecodeAs[T](body)
		if err != nil {
			return err
		}
		logger.L().Debug("layer_loaded", "layer", k.Layer(), "features", len(xs))
		*dst = xs
		return nil
	}
}

// 文档注释：并发拉取并解码全部图层
// 约束：任一图层失败则整体失败（其余请求随 ctx 取消）；返回时全部集合已就绪。
func FetchAll(ctx context.Context, src Source) (*Collections, error) {
	var c Collections
	g, ctx := errgroup.WithContext(ctx)
	g.Go(load(ctx, src, &c.Waypoints))
	g.Go(load(ctx, src, &c.NDBs))
	g.Go(load(ctx, src, &c.VORs))
	g.Go(load(ctx, src, &c.Runways))
	g.Go(load(ctx, src, &c.Thresholds))
	g.Go(load(ctx, src, &c.Airports))
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &c, nil
}
