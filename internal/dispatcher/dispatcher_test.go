package dispatcher

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/monorepo-trigger/internal/event"
	"github.com/monorepo-trigger/internal/pipeline"
	"github.com/monorepo-trigger/internal/store"
	"github.com/monorepo-trigger/internal/vcs"
	"go.uber.org/mock/gomock"
)

type mocks struct {
	repo    *vcs.MockService
	starter *pipeline.MockStarter
	store   *store.MockStore
}

func newDispatcher(t *testing.T) (*Dispatcher, mocks) {
	ctrl := gomock.NewController(t)
	m := mocks{
		repo:    vcs.NewMockService(ctrl),
		starter: pipeline.NewMockStarter(ctrl),
		store:   store.NewMockStore(ctrl),
	}
	d := New(m.repo, m.starter, m.store)
	d.newID = func() string { return "test-invocation" }
	return d, m
}

func modified(paths ...string) []vcs.Difference {
	out := make([]vcs.Difference, 0, len(paths))
	for _, p := range paths {
		out = append(out, vcs.Difference{Before: &vcs.Blob{Path: p}, After: &vcs.Blob{Path: p}})
	}
	return out
}

func TestDispatch_ScenarioA_FirstRunUsesParent(t *testing.T) {
	d, m := newDispatcher(t)
	ctx := context.Background()
	trig := event.Trigger{Repository: "monorepo-sample", Branch: "main", Commit: "c2"}
	param := "/MonoRepoTrigger/monorepo-sample/main/LastCommit"

	gomock.InOrder(
		m.store.EXPECT().GetParameter(gomock.Any(), param).Return("", store.ErrNotFound),
		m.repo.EXPECT().GetCommit(gomock.Any(), "monorepo-sample", "c2").Return(&vcs.Commit{ID: "c2", Parents: []string{"c1"}}, nil),
		m.repo.EXPECT().GetDifferences(gomock.Any(), "monorepo-sample", "c1", "c2").Return(modified("demo/app.py", "root.txt"), nil),
		m.repo.EXPECT().GetFile(gomock.Any(), "monorepo-sample", "refs/heads/main", "monorepo-main.json").Return([]byte(`{"demo":"pipeline-demo"}`), nil),
		m.starter.EXPECT().StartPipeline(gomock.Any(), "pipeline-demo", trig).Return(nil),
		m.store.EXPECT().PutParameter(gomock.Any(), param, "c2").Return(nil),
	)

	res, err := d.Dispatch(ctx, trig)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Before != "c1" {
		t.Errorf("before want c1 got %s", res.Before)
	}
	if !reflect.DeepEqual(res.Directories, []string{"demo"}) {
		t.Errorf("directories want [demo] got %v", res.Directories)
	}
	if !reflect.DeepEqual(res.Started, []string{"pipeline-demo"}) {
		t.Errorf("started want [pipeline-demo] got %v", res.Started)
	}
	if len(res.Failed) != 0 {
		t.Errorf("failed want [] got %v", res.Failed)
	}
}

func TestDispatch_ScenarioB_RecordedCommitAndUnmappedDirectory(t *testing.T) {
	d, m := newDispatcher(t)
	trig := event.Trigger{Repository: "monorepo-sample", Branch: "main", Commit: "c5"}

	m.store.EXPECT().GetParameter(gomock.Any(), gomock.Any()).Return("c2", nil)
	m.repo.EXPECT().GetDifferences(gomock.Any(), "monorepo-sample", "c2", "c5").Return(modified("hotsite/index.html", "unknown/x.txt"), nil)
	m.repo.EXPECT().GetFile(gomock.Any(), "monorepo-sample", "refs/heads/main", "monorepo-main.json").
		Return([]byte(`{"hotsite":"pipeline-hotsite-main","demo":"pipeline-demo"}`), nil)
	m.starter.EXPECT().StartPipeline(gomock.Any(), "pipeline-hotsite-main", trig).Return(nil)
	m.store.EXPECT().PutParameter(gomock.Any(), "/MonoRepoTrigger/monorepo-sample/main/LastCommit", "c5").Return(nil)

	res, err := d.Dispatch(context.Background(), trig)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !reflect.DeepEqual(res.Directories, []string{"hotsite", "unknown"}) {
		t.Errorf("directories want [hotsite unknown] got %v", res.Directories)
	}
	if !reflect.DeepEqual(res.Started, []string{"pipeline-hotsite-main"}) {
		t.Errorf("started want [pipeline-hotsite-main] got %v", res.Started)
	}
	if len(res.Failed) != 0 {
		t.Errorf("failed want [] got %v", res.Failed)
	}
}

func TestDispatch_ScenarioC_UnknownPipelineStillRecordsCommit(t *testing.T) {
	d, m := newDispatcher(t)
	trig := event.Trigger{Repository: "r", Branch: "dev", Commit: "c9"}

	m.store.EXPECT().GetParameter(gomock.Any(), "/MonoRepoTrigger/r/dev/LastCommit").Return("c8", nil)
	m.repo.EXPECT().GetDifferences(gomock.Any(), "r", "c8", "c9").Return(modified("demo/a.py", "hotsite/b.html"), nil)
	m.repo.EXPECT().GetFile(gomock.Any(), "r", "refs/heads/dev", "monorepo-dev.json").
		Return([]byte(`{"demo":"missing-pipeline","hotsite":"pipeline-hotsite-dev"}`), nil)
	m.starter.EXPECT().StartPipeline(gomock.Any(), "missing-pipeline", trig).Return(pipeline.ErrNotFound)
	m.starter.EXPECT().StartPipeline(gomock.Any(), "pipeline-hotsite-dev", trig).Return(nil)
	m.store.EXPECT().PutParameter(gomock.Any(), "/MonoRepoTrigger/r/dev/LastCommit", "c9").Return(nil)

	res, err := d.Dispatch(context.Background(), trig)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !reflect.DeepEqual(res.Failed, []string{"missing-pipeline"}) {
		t.Errorf("failed want [missing-pipeline] got %v", res.Failed)
	}
	if !reflect.DeepEqual(res.Started, []string{"pipeline-hotsite-dev"}) {
		t.Errorf("started want [pipeline-hotsite-dev] got %v", res.Started)
	}
}

func TestDispatch_ScenarioD_MissingMapAborts(t *testing.T) {
	d, m := newDispatcher(t)
	trig := event.Trigger{Repository: "r", Branch: "main", Commit: "c2"}

	m.store.EXPECT().GetParameter(gomock.Any(), gomock.Any()).Return("c1", nil)
	m.repo.EXPECT().GetDifferences(gomock.Any(), "r", "c1", "c2").Return(modified("demo/a.py"), nil)
	m.repo.EXPECT().GetFile(gomock.Any(), "r", "refs/heads/main", "monorepo-main.json").Return(nil, vcs.ErrNotFound)
	// No StartPipeline, no PutParameter.

	_, err := d.Dispatch(context.Background(), trig)
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("want ErrConfigNotFound got %v", err)
	}
}

func TestDispatch_MalformedMapAborts(t *testing.T) {
	d, m := newDispatcher(t)
	trig := event.Trigger{Repository: "r", Branch: "main", Commit: "c2"}

	m.store.EXPECT().GetParameter(gomock.Any(), gomock.Any()).Return("c1", nil)
	m.repo.EXPECT().GetDifferences(gomock.Any(), "r", "c1", "c2").Return(modified("demo/a.py"), nil)
	m.repo.EXPECT().GetFile(gomock.Any(), "r", "refs/heads/main", "monorepo-main.json").Return([]byte(`{"demo": {"name": "x"}}`), nil)

	_, err := d.Dispatch(context.Background(), trig)
	if !errors.Is(err, ErrConfigMalformed) {
		t.Fatalf("want ErrConfigMalformed got %v", err)
	}
}

func TestDispatch_NullPipelineNameAbortsWithoutStarting(t *testing.T) {
	d, m := newDispatcher(t)
	trig := event.Trigger{Repository: "r", Branch: "main", Commit: "c2"}

	m.store.EXPECT().GetParameter(gomock.Any(), gomock.Any()).Return("c1", nil)
	m.repo.EXPECT().GetDifferences(gomock.Any(), "r", "c1", "c2").Return(modified("demo/a.py"), nil)
	m.repo.EXPECT().GetFile(gomock.Any(), "r", "refs/heads/main", "monorepo-main.json").Return([]byte(`{"demo": null}`), nil)

	res, err := d.Dispatch(context.Background(), trig)
	if !errors.Is(err, ErrConfigMalformed) {
		t.Fatalf("want ErrConfigMalformed got %v", err)
	}
	if res != nil {
		t.Errorf("want no result got %+v", res)
	}
}

func TestDispatch_RootCommitDiffsAgainstNothing(t *testing.T) {
	d, m := newDispatcher(t)
	trig := event.Trigger{Repository: "r", Branch: "main", Commit: "c0"}

	m.store.EXPECT().GetParameter(gomock.Any(), gomock.Any()).Return("", store.ErrNotFound)
	m.repo.EXPECT().GetCommit(gomock.Any(), "r", "c0").Return(&vcs.Commit{ID: "c0"}, nil)
	m.repo.EXPECT().GetDifferences(gomock.Any(), "r", "", "c0").
		Return([]vcs.Difference{{After: &vcs.Blob{Path: "demo/a.py"}}, {After: &vcs.Blob{Path: "monorepo-main.json"}}}, nil)
	m.repo.EXPECT().GetFile(gomock.Any(), "r", "refs/heads/main", "monorepo-main.json").Return([]byte(`{"demo":"p-demo"}`), nil)
	m.starter.EXPECT().StartPipeline(gomock.Any(), "p-demo", trig).Return(nil)
	m.store.EXPECT().PutParameter(gomock.Any(), gomock.Any(), "c0").Return(nil)

	res, err := d.Dispatch(context.Background(), trig)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Before != "" {
		t.Errorf("before want empty got %s", res.Before)
	}
}

func TestDispatch_SharedPipelineStartedOnce(t *testing.T) {
	d, m := newDispatcher(t)
	trig := event.Trigger{Repository: "r", Branch: "main", Commit: "c2"}

	m.store.EXPECT().GetParameter(gomock.Any(), gomock.Any()).Return("c1", nil)
	m.repo.EXPECT().GetDifferences(gomock.Any(), "r", "c1", "c2").Return(modified("api/a.go", "api/b.go", "web/index.html"), nil)
	m.repo.EXPECT().GetFile(gomock.Any(), "r", "refs/heads/main", "monorepo-main.json").Return([]byte(`{"api":"shared","web":"shared"}`), nil)
	m.starter.EXPECT().StartPipeline(gomock.Any(), "shared", trig).Return(nil).Times(1)
	m.store.EXPECT().PutParameter(gomock.Any(), gomock.Any(), "c2").Return(nil)

	res, err := d.Dispatch(context.Background(), trig)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !reflect.DeepEqual(res.Started, []string{"shared"}) {
		t.Errorf("started want [shared] got %v", res.Started)
	}
}

func TestDispatch_StateLookupFailureAborts(t *testing.T) {
	d, m := newDispatcher(t)
	boom := errors.New("connection reset")
	m.store.EXPECT().GetParameter(gomock.Any(), gomock.Any()).Return("", boom)

	_, err := d.Dispatch(context.Background(), event.Trigger{Repository: "r", Branch: "main", Commit: "c2"})
	if !errors.Is(err, ErrStateLookup) || !errors.Is(err, boom) {
		t.Fatalf("want ErrStateLookup wrapping cause got %v", err)
	}
}

func TestDispatch_CommitLookupFailureAborts(t *testing.T) {
	d, m := newDispatcher(t)
	m.store.EXPECT().GetParameter(gomock.Any(), gomock.Any()).Return("", store.ErrNotFound)
	m.repo.EXPECT().GetCommit(gomock.Any(), "r", "c2").Return(nil, vcs.ErrNotFound)

	_, err := d.Dispatch(context.Background(), event.Trigger{Repository: "r", Branch: "main", Commit: "c2"})
	if !errors.Is(err, ErrCommitLookup) {
		t.Fatalf("want ErrCommitLookup got %v", err)
	}
}

func TestDispatch_DiffFailureAborts(t *testing.T) {
	d, m := newDispatcher(t)
	m.store.EXPECT().GetParameter(gomock.Any(), gomock.Any()).Return("c1", nil)
	m.repo.EXPECT().GetDifferences(gomock.Any(), "r", "c1", "c2").Return(nil, errors.New("service unavailable"))

	_, err := d.Dispatch(context.Background(), event.Trigger{Repository: "r", Branch: "main", Commit: "c2"})
	if !errors.Is(err, ErrDiffRetrieval) {
		t.Fatalf("want ErrDiffRetrieval got %v", err)
	}
}

func TestDispatch_OtherStartErrorAbortsBeforeStateWrite(t *testing.T) {
	d, m := newDispatcher(t)
	trig := event.Trigger{Repository: "r", Branch: "main", Commit: "c2"}

	m.store.EXPECT().GetParameter(gomock.Any(), gomock.Any()).Return("c1", nil)
	m.repo.EXPECT().GetDifferences(gomock.Any(), "r", "c1", "c2").Return(modified("a/x", "b/y"), nil)
	m.repo.EXPECT().GetFile(gomock.Any(), "r", "refs/heads/main", "monorepo-main.json").Return([]byte(`{"a":"pa","b":"pb"}`), nil)
	m.starter.EXPECT().StartPipeline(gomock.Any(), "pa", trig).Return(errors.New("throttled"))
	// pb is never attempted and PutParameter is never called.

	_, err := d.Dispatch(context.Background(), trig)
	if !errors.Is(err, ErrPipelineStart) {
		t.Fatalf("want ErrPipelineStart got %v", err)
	}
}

func TestDispatch_StateWriteFailure(t *testing.T) {
	d, m := newDispatcher(t)
	trig := event.Trigger{Repository: "r", Branch: "main", Commit: "c2"}

	m.store.EXPECT().GetParameter(gomock.Any(), gomock.Any()).Return("c1", nil)
	m.repo.EXPECT().GetDifferences(gomock.Any(), "r", "c1", "c2").Return(modified("README.md"), nil)
	m.repo.EXPECT().GetFile(gomock.Any(), "r", "refs/heads/main", "monorepo-main.json").Return([]byte(`{}`), nil)
	m.store.EXPECT().PutParameter(gomock.Any(), gomock.Any(), "c2").Return(errors.New("read only"))

	_, err := d.Dispatch(context.Background(), trig)
	if !errors.Is(err, ErrStateUpdate) {
		t.Fatalf("want ErrStateUpdate got %v", err)
	}
}

func TestDispatch_IdempotentForSameRecord(t *testing.T) {
	d, m := newDispatcher(t)
	trig := event.Trigger{Repository: "r", Branch: "main", Commit: "c3"}

	m.store.EXPECT().GetParameter(gomock.Any(), gomock.Any()).Return("c1", nil).Times(2)
	m.repo.EXPECT().GetDifferences(gomock.Any(), "r", "c1", "c3").Return(modified("demo/a", "hotsite/b", "x"), nil).Times(2)
	m.repo.EXPECT().GetFile(gomock.Any(), "r", "refs/heads/main", "monorepo-main.json").Return([]byte(`{"demo":"pd","hotsite":"ph"}`), nil).Times(2)

	first, err := d.Preview(context.Background(), trig)
	if err != nil {
		t.Fatal(err)
	}
	second, err := d.Preview(context.Background(), trig)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("previews differ: %+v vs %+v", first, second)
	}
	if !reflect.DeepEqual(first.Pipelines, []string{"pd", "ph"}) {
		t.Errorf("pipelines want [pd ph] got %v", first.Pipelines)
	}
}

func TestHandle_MalformedEventMakesNoCalls(t *testing.T) {
	d, _ := newDispatcher(t)

	_, err := d.Handle(context.Background(), []byte(`{"Records":[]}`))
	if !errors.Is(err, event.ErrMalformedEvent) {
		t.Fatalf("want ErrMalformedEvent got %v", err)
	}
}
