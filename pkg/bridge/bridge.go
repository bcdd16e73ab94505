// Package bridge holds the synthetic module every template unit imports its helpers from.
package bridge

const (
	// ModuleName is the import specifier that always resolves to the bridge file.
	ModuleName = "sfc-editor-bridge"
	FileName   = "sfc-temp/sfc-editor-bridge.ts"
	// Version never changes; the content is fixed for the life of the process.
	Version = "0"

	RenderHelper    = "__sfcRenderHelper"
	ComponentHelper = "__sfcComponentHelper"
	IterationHelper = "__sfcIterationHelper"
	ListenerHelper  = "__sfcListenerHelper"
)

// Helpers lists the helper names in the order template units import them.
func Helpers() []string {
	return []string{RenderHelper, ComponentHelper, IterationHelper, ListenerHelper}
}

// Content returns the bridge file text.
func Content() string {
	return content
}

const content = `type DataOf<C> = C extends { data(): infer D }
  ? D
  : C extends { data: infer D }
  ? D extends (...args: any[]) => infer R
    ? R
    : D
  : {};
type MethodsOf<C> = C extends { methods: infer M } ? M : {};
type ComputedOf<C> = C extends { computed: infer P }
  ? {
      [K in keyof P]: P[K] extends (...args: any[]) => infer R
        ? R
        : P[K] extends { get(): infer G }
        ? G
        : any;
    }
  : {};
type PropsOf<C> = C extends { props: infer P }
  ? P extends readonly string[]
    ? { [K in P[number]]: any }
    : { [K in keyof P]: any }
  : {};

export type InstanceOf<C> = C extends new (...args: any[]) => infer I
  ? I
  : DataOf<C> & MethodsOf<C> & ComputedOf<C> & PropsOf<C> & { [key: ` + "`$${string}`" + `]: any };

export interface ComponentData {
  props: Record<string, any>;
  on: Record<string, ($event: any) => any>;
  directives: any[];
}

export declare function ` + RenderHelper + `<C>(component: C, fn: (this: InstanceOf<C>) => any): any;
export declare function ` + ComponentHelper + `(tag: string, data: ComponentData, children: any[]): any;
export declare function ` + IterationHelper + `<T>(list: readonly T[], fn: (value: T, index: number) => any): any;
export declare function ` + IterationHelper + `<T>(obj: { [key: string]: T }, fn: (value: T, key: string, index: number) => any): any;
export declare function ` + IterationHelper + `(num: number, fn: (value: number) => any): any;
export declare function ` + IterationHelper + `(obj: object, fn: (value: any, key: string, index: number) => any): any;
export declare function ` + ListenerHelper + `<T>(vm: T, fn: ($event: Event) => any): ($event: any) => any;

export default function bridge<T>(t: T): T {
  return t;
}
`
