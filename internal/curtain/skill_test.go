package curtain

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sort"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/nerrad567/curtain-skill/internal/device"
	"github.com/nerrad567/curtain-skill/internal/intent"
)

type skillFixture struct {
	skill  *Skill
	pub    *recordingPublisher
	tasks  *inlineRunner
	rec    *recordingRecorder
	logger *captureLogger
}

func newSkillFixture(t *testing.T, lister DeviceLister) *skillFixture {
	t.Helper()
	f := &skillFixture{
		pub:    &recordingPublisher{},
		tasks:  &inlineRunner{},
		rec:    &recordingRecorder{},
		logger: &captureLogger{},
	}
	s, err := New(Config{
		Lister:    lister,
		Publisher: f.pub,
		Templates: mustDefaultTemplates(t),
		Tasks:     f.tasks,
		Recorder:  f.rec,
		Logger:    f.logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	f.skill = s
	return f
}

// responses decodes the texts published to a room's output topic.
func (f *skillFixture) responses(t *testing.T, room string) []string {
	t.Helper()
	var texts []string
	for _, c := range f.pub.to("assistant/" + room + "/output") {
		var resp intent.Response
		if err := json.Unmarshal([]byte(c.payload), &resp); err != nil {
			t.Fatalf("response is not JSON: %v", err)
		}
		texts = append(texts, resp.Text)
	}
	return texts
}

func livingRoomLister() *staticLister {
	return &staticLister{devices: []device.GlobalDevice{
		curtainEntry("living curtain", "living room", "zigbee2mqtt/living/curtain/set"),
	}}
}

func TestProcessRequest_OpenWithRoomEntity(t *testing.T) {
	f := newSkillFixture(t, livingRoomLister())
	req := newRequest(intent.DeviceOpen, "bedroom", map[string][]intent.Entity{
		intent.EntityDevice: {curtainDeviceEntity()},
		intent.EntityRoom:   {roomEntity("living room")},
	})

	if got := f.skill.ProcessRequest(context.Background(), req); got != OutcomeDispatched {
		t.Fatalf("ProcessRequest() = %v, want %v", got, OutcomeDispatched)
	}

	cmds := f.pub.to("zigbee2mqtt/living/curtain/set")
	if len(cmds) != 1 || cmds[0].payload != DefaultPayloadOpen || cmds[0].qos != 1 {
		t.Errorf("commands = %+v", cmds)
	}
	if texts := f.responses(t, "bedroom"); !reflect.DeepEqual(texts, []string{"I have opened the curtains.\n"}) {
		t.Errorf("responses = %q", texts)
	}
	if !reflect.DeepEqual(f.tasks.names, []string{"response", "dispatch"}) {
		t.Errorf("tasks = %v, want [response dispatch]", f.tasks.names)
	}
}

func TestProcessRequest_SetWithPosition(t *testing.T) {
	f := newSkillFixture(t, livingRoomLister())
	req := newRequest(intent.DeviceSet, "living room", map[string][]intent.Entity{
		intent.EntityDevice: {curtainDeviceEntity()},
		intent.EntityNumber: {numberEntity(50.0)},
	})

	if got := f.skill.ProcessRequest(context.Background(), req); got != OutcomeDispatched {
		t.Fatalf("ProcessRequest() = %v, want %v", got, OutcomeDispatched)
	}

	cmds := f.pub.to("zigbee2mqtt/living/curtain/set")
	if len(cmds) != 1 || cmds[0].payload != `{"position": 50}` {
		t.Errorf("commands = %+v", cmds)
	}
	if texts := f.responses(t, "living room"); !reflect.DeepEqual(texts, []string{"I have set the curtains to 50%."}) {
		t.Errorf("responses = %q", texts)
	}
}

func TestProcessRequest_SetExplicitZero(t *testing.T) {
	f := newSkillFixture(t, livingRoomLister())
	req := newRequest(intent.DeviceSet, "living room", map[string][]intent.Entity{
		intent.EntityDevice: {curtainDeviceEntity()},
		intent.EntityNumber: {numberEntity(0.0)},
	})

	if got := f.skill.ProcessRequest(context.Background(), req); got != OutcomeDispatched {
		t.Fatalf("ProcessRequest() = %v, want %v", got, OutcomeDispatched)
	}
	if cmds := f.pub.to("zigbee2mqtt/living/curtain/set"); len(cmds) != 1 || cmds[0].payload != `{"position": 0}` {
		t.Errorf("commands = %+v", cmds)
	}
}

func TestProcessRequest_SetOutOfRangeFallsBackToZero(t *testing.T) {
	f := newSkillFixture(t, livingRoomLister())
	req := newRequest(intent.DeviceSet, "living room", map[string][]intent.Entity{
		intent.EntityDevice: {curtainDeviceEntity()},
		intent.EntityNumber: {numberEntity(1e20)},
	})

	if got := f.skill.ProcessRequest(context.Background(), req); got != OutcomeDispatched {
		t.Fatalf("ProcessRequest() = %v, want %v", got, OutcomeDispatched)
	}
	if cmds := f.pub.to("zigbee2mqtt/living/curtain/set"); len(cmds) != 1 || cmds[0].payload != `{"position": 0}` {
		t.Errorf("commands = %+v", cmds)
	}
}

func TestProcessRequest_SetWithoutNumber(t *testing.T) {
	f := newSkillFixture(t, livingRoomLister())
	req := newRequest(intent.DeviceSet, "living room", map[string][]intent.Entity{
		intent.EntityDevice: {curtainDeviceEntity()},
	})

	if got := f.skill.ProcessRequest(context.Background(), req); got != OutcomeAwaitingParameter {
		t.Fatalf("ProcessRequest() = %v, want %v", got, OutcomeAwaitingParameter)
	}
	if n := len(f.pub.to("zigbee2mqtt/living/curtain/set")); n != 0 {
		t.Errorf("published %d commands, want 0", n)
	}
	if texts := f.responses(t, "living room"); !reflect.DeepEqual(texts, []string{ReplyAwaitingPosition}) {
		t.Errorf("responses = %q", texts)
	}
}

func TestProcessRequest_NoCurtainsInRoom(t *testing.T) {
	f := newSkillFixture(t, livingRoomLister())
	req := newRequest(intent.DeviceClose, "garage", map[string][]intent.Entity{
		intent.EntityDevice: {curtainDeviceEntity()},
	})

	if got := f.skill.ProcessRequest(context.Background(), req); got != OutcomeNoTargets {
		t.Fatalf("ProcessRequest() = %v, want %v", got, OutcomeNoTargets)
	}
	if f.pub.count() != 1 {
		t.Errorf("published %d messages, want only the reply", f.pub.count())
	}
	if texts := f.responses(t, "garage"); !reflect.DeepEqual(texts, []string{"I couldn't find any curtains in garage."}) {
		t.Errorf("responses = %q", texts)
	}
}

func TestProcessRequest_PartialPublishFailure(t *testing.T) {
	lister := &staticLister{devices: []device.GlobalDevice{
		curtainEntry("first", "studio", "curtains/first/set"),
		curtainEntry("second", "studio", "curtains/second/set"),
	}}
	f := newSkillFixture(t, lister)
	f.pub.failOn = map[string]error{"curtains/first/set": errBrokerDown}

	req := newRequest(intent.DeviceClose, "studio", map[string][]intent.Entity{
		intent.EntityDevice: {curtainDeviceEntity()},
	})
	if got := f.skill.ProcessRequest(context.Background(), req); got != OutcomeDispatched {
		t.Fatalf("ProcessRequest() = %v, want %v", got, OutcomeDispatched)
	}

	if len(f.pub.to("curtains/second/set")) != 1 {
		t.Error("second device not attempted")
	}
	if texts := f.responses(t, "studio"); !reflect.DeepEqual(texts, []string{"I have closed the curtains.\n"}) {
		t.Errorf("responses = %q", texts)
	}
	if !f.logger.has("error: failed to send curtain command") {
		t.Error("publish failure not logged")
	}
}

func TestProcessRequest_NotForCurtains(t *testing.T) {
	lights := []intent.Entity{{
		Type:            intent.EntityDevice,
		NormalizedValue: "light",
		Metadata:        map[string]any{intent.MetaDeviceType: "light"},
	}}

	for _, kind := range []intent.Type{intent.DeviceOpen, intent.DeviceSet, intent.DeviceOn, intent.SystemHelp} {
		t.Run(string(kind), func(t *testing.T) {
			f := newSkillFixture(t, livingRoomLister())
			req := newRequest(kind, "living room", map[string][]intent.Entity{
				intent.EntityDevice: lights,
				intent.EntityNumber: {numberEntity(40.0)},
			})

			if got := f.skill.ProcessRequest(context.Background(), req); got != OutcomeDropped {
				t.Fatalf("ProcessRequest() = %v, want %v", got, OutcomeDropped)
			}
			if f.pub.count() != 0 {
				t.Errorf("published %d messages for a foreign intent", f.pub.count())
			}
			if len(f.tasks.names) != 0 {
				t.Errorf("scheduled tasks %v for a foreign intent", f.tasks.names)
			}
		})
	}
}

func TestProcessRequest_Unsupported(t *testing.T) {
	f := newSkillFixture(t, livingRoomLister())
	req := newRequest(intent.DeviceOn, "living room", map[string][]intent.Entity{
		intent.EntityDevice: {curtainDeviceEntity()},
	})

	if got := f.skill.ProcessRequest(context.Background(), req); got != OutcomeUnsupported {
		t.Fatalf("ProcessRequest() = %v, want %v", got, OutcomeUnsupported)
	}
	if n := len(f.pub.to("zigbee2mqtt/living/curtain/set")); n != 0 {
		t.Errorf("published %d commands, want 0", n)
	}
	if texts := f.responses(t, "living room"); !reflect.DeepEqual(texts, []string{ReplyUnsupported}) {
		t.Errorf("responses = %q", texts)
	}

	// Kinds outside device control are not gated on the entity check.
	query := newRequest(intent.QueryTime, "living room", nil)
	if got := f.skill.ProcessRequest(context.Background(), query); got != OutcomeUnsupported {
		t.Errorf("ProcessRequest(query.time) = %v, want %v", got, OutcomeUnsupported)
	}
}

func TestProcessRequest_Help(t *testing.T) {
	f := newSkillFixture(t, &staticLister{})
	req := newRequest(intent.SystemHelp, "garage", map[string][]intent.Entity{
		intent.EntityDevice: {curtainDeviceEntity()},
	})

	if got := f.skill.ProcessRequest(context.Background(), req); got != OutcomeAnswered {
		t.Fatalf("ProcessRequest() = %v, want %v", got, OutcomeAnswered)
	}
	texts := f.responses(t, "garage")
	if len(texts) != 1 || !strings.HasPrefix(texts[0], "Here is how you can use the CurtainSkill:") {
		t.Errorf("responses = %q", texts)
	}
	if !reflect.DeepEqual(f.tasks.names, []string{"response"}) {
		t.Errorf("tasks = %v, want [response]", f.tasks.names)
	}
}

func TestProcessRequest_ListerFailure(t *testing.T) {
	f := newSkillFixture(t, &staticLister{err: errors.New("disk I/O error")})
	req := newRequest(intent.DeviceOpen, "studio", map[string][]intent.Entity{
		intent.EntityDevice: {curtainDeviceEntity()},
	})

	if got := f.skill.ProcessRequest(context.Background(), req); got != OutcomeFailed {
		t.Fatalf("ProcessRequest() = %v, want %v", got, OutcomeFailed)
	}
	if texts := f.responses(t, "studio"); !reflect.DeepEqual(texts, []string{ReplyProcessingFailed}) {
		t.Errorf("responses = %q", texts)
	}
}

func TestProcessRequest_NoOutputTopic(t *testing.T) {
	f := newSkillFixture(t, livingRoomLister())
	req := newRequest(intent.DeviceOpen, "living room", map[string][]intent.Entity{
		intent.EntityDevice: {curtainDeviceEntity()},
	})
	req.ClientRequest.OutputTopic = ""

	if got := f.skill.ProcessRequest(context.Background(), req); got != OutcomeDispatched {
		t.Fatalf("ProcessRequest() = %v, want %v", got, OutcomeDispatched)
	}
	if f.pub.count() != 1 {
		t.Errorf("published %d messages, want only the device command", f.pub.count())
	}
}

func TestProcessRequest_ResponseFailureDoesNotBlockDispatch(t *testing.T) {
	f := newSkillFixture(t, livingRoomLister())
	req := newRequest(intent.DeviceOpen, "living room", map[string][]intent.Entity{
		intent.EntityDevice: {curtainDeviceEntity()},
	})
	f.pub.failOn = map[string]error{req.ClientRequest.OutputTopic: errBrokerDown}

	f.skill.ProcessRequest(context.Background(), req)

	if len(f.pub.to("zigbee2mqtt/living/curtain/set")) != 1 {
		t.Error("device command not sent after the reply failed")
	}
	if !f.logger.has("error: failed to send response") {
		t.Error("reply failure not logged")
	}
}

func TestProcessRequest_Concurrent(t *testing.T) {
	pub := &recordingPublisher{}
	s, err := New(Config{
		Lister:    livingRoomLister(),
		Publisher: pub,
		Templates: mustDefaultTemplates(t),
		Tasks:     &lockedRunner{},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const n = 50
	done := make(chan Outcome, n)
	for i := 0; i < n; i++ {
		go func() {
			req := newRequest(intent.DeviceOpen, "living room", map[string][]intent.Entity{
				intent.EntityDevice: {curtainDeviceEntity()},
			})
			done <- s.ProcessRequest(context.Background(), req)
		}()
	}
	for i := 0; i < n; i++ {
		if got := <-done; got != OutcomeDispatched {
			t.Errorf("ProcessRequest() = %v", got)
		}
	}

	if got := len(pub.to("zigbee2mqtt/living/curtain/set")); got != n {
		t.Errorf("published %d commands, want %d", got, n)
	}
}

// lockedRunner runs tasks inline; it is safe for concurrent callers.
type lockedRunner struct{}

func (lockedRunner) Go(_ string, fn func()) { fn() }

func TestNew_Validation(t *testing.T) {
	templates := mustDefaultTemplates(t)
	partial, err := LoadTemplates(fstest.MapFS{
		TemplateState:      {Data: []byte("x")},
		TemplateSetCurtain: {Data: []byte("x")},
		TemplateHelp:       {Data: []byte("x")},
	})
	if err != nil {
		t.Fatalf("LoadTemplates() error = %v", err)
	}
	delete(partial.byName, TemplateHelp)

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{name: "no lister", cfg: Config{Publisher: &recordingPublisher{}, Templates: templates}, wantErr: ErrMissingDependency},
		{name: "no publisher", cfg: Config{Lister: &staticLister{}, Templates: templates}, wantErr: ErrMissingDependency},
		{name: "no templates", cfg: Config{Lister: &staticLister{}, Publisher: &recordingPublisher{}}, wantErr: ErrMissingDependency},
		{name: "template missing", cfg: Config{Lister: &staticLister{}, Publisher: &recordingPublisher{}, Templates: partial}, wantErr: ErrTemplateNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSupportedIntents(t *testing.T) {
	var got []string
	for _, kind := range SupportedIntents() {
		if _, ok := LookupAction(kind); !ok {
			t.Errorf("supported intent %s has no action", kind)
		}
		got = append(got, string(kind))
	}
	sort.Strings(got)
	want := []string{"device.close", "device.open", "device.set", "system.help"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SupportedIntents() = %v, want %v", got, want)
	}
}

func TestOutcome_String(t *testing.T) {
	if OutcomeDispatched.String() != "dispatched" || OutcomeAwaitingParameter.String() != "awaiting_parameter" {
		t.Errorf("unexpected names: %s %s", OutcomeDispatched, OutcomeAwaitingParameter)
	}
	if Outcome(42).String() != "outcome(42)" {
		t.Errorf("Outcome(42).String() = %q", Outcome(42).String())
	}
}
