package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/c360/objkit/anyvalue"
	"github.com/c360/objkit/codec/yamlcodec"
	"github.com/c360/objkit/env"
	"github.com/c360/objkit/model"
	"github.com/c360/objkit/object"
	"github.com/c360/objkit/schema"
)

var (
	demoPoints = [][]float64{{0, 0}, {0, 1}, {1, 0}, {4, 4}, {4, 5}, {5, 4}}
	demoTruth  = []float64{-1, -1, -1, 1, 1, 1}
	kernelKind = []string{"GAUSSIAN", "LINEAR"}
)

type demoOptions struct {
	Env        *env.Environment
	Iterations int
	Clones     int
	Params     []byte
	SavePath   string
	Observers  *observers
	Out        io.Writer
}

type trained struct {
	kernel   string
	accuracy float64
	passes   int64
	hash     uint32
}

func runDemo(ctx context.Context, opts demoOptions) error {
	e := opts.Env
	logger := e.Logger()
	withEnv := object.WithEnvironment(e)
	out := opts.Out

	base := model.NewPerceptron(withEnv)
	base.Ref()
	defer base.Unref()

	if err := object.Put(base, "max_iterations", opts.Iterations); err != nil {
		return err
	}
	if err := object.Add(base, "features", model.NewDenseFeatures(demoPoints, withEnv)); err != nil {
		return err
	}
	if err := object.Add[object.Labels](base, "labels", model.NewBinaryLabels(demoTruth, withEnv)); err != nil {
		return err
	}
	if len(opts.Params) > 0 {
		if err := schema.Apply(base, opts.Params); err != nil {
			return fmt.Errorf("apply parameters: %w", err)
		}
	}
	_, _ = fmt.Fprintf(out, "model: %s\nhash: %08x\n", base, base.Hash())

	clones := make([]*model.Perceptron, 0, opts.Clones)
	defer func() {
		for _, c := range clones {
			c.Unref()
		}
	}()
	for i := range opts.Clones {
		c := object.Clone(base)
		if c == nil {
			return fmt.Errorf("clone %d of %s failed", i, base.Name())
		}
		clones = append(clones, c)
		if err := object.Put(c, "kernel_type", kernelKind[i%len(kernelKind)]); err != nil {
			return err
		}
	}
	if len(clones) > 0 {
		_, _ = fmt.Fprintf(out, "clone 0 equals model before training: %t\n", object.Equals(base, clones[0]))
	}

	test := model.NewDenseFeatures(demoPoints, withEnv)
	truth := model.NewBinaryLabels(demoTruth, withEnv)
	test.Ref()
	truth.Ref()
	defer test.Unref()
	defer truth.Unref()

	results := make([]trained, len(clones))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, e.Parallel().Threads()))
	for i, c := range clones {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			opts.Observers.Subscribe(c)
			if err := object.Run(c, "train"); err != nil {
				return fmt.Errorf("train clone %d: %w", i, err)
			}
			r, err := evaluate(c, test, truth)
			if err != nil {
				return fmt.Errorf("evaluate clone %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	best := 0
	for i, r := range results {
		_, _ = fmt.Fprintf(out, "clone %d kernel=%s accuracy=%.2f passes=%d hash=%08x\n",
			i, r.kernel, r.accuracy, r.passes, r.hash)
		if r.accuracy > results[best].accuracy {
			best = i
		}
	}
	for j := 1; j < len(clones); j++ {
		_, _ = fmt.Fprintf(out, "clone 0 equals clone %d: %t\n", j, object.Equals(clones[0], clones[j]))
	}
	if len(clones) > 0 {
		_, _ = fmt.Fprintf(out, "clone 0 equals model after training: %t\n", object.Equals(base, clones[0]))
	}
	printObservations(out, opts.Observers)

	if opts.SavePath != "" && len(clones) > 0 {
		if err := save(clones[best], opts.SavePath); err != nil {
			return err
		}
		logger.Info("Saved model", "clone", best, "path", opts.SavePath)
	}
	return nil
}

func evaluate(c *model.Perceptron, test *model.DenseFeatures, truth *model.BinaryLabels) (trained, error) {
	kernel, err := object.Get[string](c, "kernel_type")
	if err != nil {
		return trained{}, err
	}
	pred := c.Apply(test)
	if pred == nil {
		return trained{}, fmt.Errorf("%s produced no predictions", c.Name())
	}
	pred.Ref()
	defer pred.Unref()

	acc := model.NewAccuracy(c.Inherit()...)
	acc.Ref()
	defer acc.Unref()

	return trained{
		kernel:   kernel,
		accuracy: acc.Evaluate(pred, truth),
		passes:   c.CurrentStep() + 1,
		hash:     c.Hash(),
	}, nil
}

func printObservations(out io.Writer, obs *observers) {
	if obs.recorder != nil {
		_, _ = fmt.Fprintf(out, "recorded %d observations (%d dropped)\n",
			len(obs.recorder.Values()), obs.recorder.Dropped())
	}
	if obs.latest == nil {
		return
	}
	for _, key := range obs.latest.Keys() {
		v, ok := obs.latest.Get(splitKey(key))
		if !ok {
			continue
		}
		if f, err := anyvalue.As[float64](v.Value); err == nil {
			_, _ = fmt.Fprintf(out, "latest %s step=%d value=%g\n", key, v.Step, f)
		}
	}
}

func splitKey(key string) (string, string) {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == '/' {
			return key[:i], key[i+1:]
		}
	}
	return "", key
}

func save(o object.Object, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := object.Save(o, yamlcodec.NewEncoder(f)); err != nil {
		_ = f.Close()
		return fmt.Errorf("save model: %w", err)
	}
	return f.Close()
}
