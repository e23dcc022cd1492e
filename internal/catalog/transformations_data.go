package catalog

import "github.com/nanobananary/studio-api/internal/models"

func effect(key, emoji, prompt string) models.Transformation {
	return models.Transformation{
		Key:            key,
		TitleKey:       "transformations.effects." + key + ".title",
		DescriptionKey: "transformations.effects." + key + ".description",
		Prompt:         prompt,
		Emoji:          emoji,
	}
}

func multi(t models.Transformation) models.Transformation {
	t.IsMultiImage = true
	return t
}

var transformations = []models.Transformation{
	{
		Key:                 "customPrompt",
		TitleKey:            "transformations.effects.customPrompt.title",
		DescriptionKey:      "transformations.effects.customPrompt.description",
		Prompt:              models.CustomPrompt,
		Emoji:               "✍️",
		IsMultiImage:        true,
		IsPrimaryOptional:   true,
		IsSecondaryOptional: true,
	},
	effect("figurine", "🧍", "turn this photo into a character figure. Behind it, place a box with the character’s image printed on it, and a computer showing the Blender modeling process on its screen. In front of the box, add a round plastic base with the character figure standing on it. set the scene indoors if possible"),
	effect("funko", "📦", "Transform the person into a Funko Pop figure, shown inside and next to its packaging."),
	effect("lego", "🧱", "Transform the person into a LEGO minifigure, inside its packaging box."),
	effect("crochet", "🧶", "Transform the subject into a handmade crocheted yarn doll with a cute, chibi-style appearance."),
	effect("cosplay", "🎭", "Generate a highly detailed, realistic photo of a person cosplaying the character in this illustration. Replicate the pose, expression, and framing."),
	effect("plushie", "🧸", "Turn the person in this photo into a cute, soft plushie doll."),
	effect("keychain", "🔑", "Turn the subject into a cute acrylic keychain, shown attached to a bag."),
	effect("hdEnhance", "🔍", "Enhance this image to high resolution, improving sharpness and clarity."),
	multi(effect("pose", "💃", "Apply the pose from the second image to the character in the first image. Render as a professional studio photograph.")),
	effect("photorealistic", "🪄", "Turn this illustration into a photorealistic version."),
	effect("fashion", "📸", "Transform the photo into a stylized, ultra-realistic fashion magazine portrait with cinematic lighting."),
	effect("hyperrealistic", "✨", "Generate a hyper-realistic, fashion-style photo with strong, direct flash lighting, grainy texture, and a cool, confident pose."),
	effect("architecture", "🏗️", "Convert this photo of a building into a miniature architecture model, placed on a cardstock in an indoor setting. Show a computer with modeling software in the background."),
	effect("productRender", "💡", "Turn this product sketch into a photorealistic 3D render with studio lighting."),
	effect("sodaCan", "🥤", "Design a soda can using this image as the main graphic, and show it in a professional product shot."),
	effect("industrialDesign", "🛋️", "Turn this industrial design sketch into a realistic product photo, rendered with light brown leather and displayed in a minimalist museum setting."),
	effect("iphoneWallpaper", "📱", "Turn the image into an iPhone lock screen wallpaper effect, with the phone's time (01:16), date (Sunday, September 16), and status bar information (battery, signal, etc.), with the flashlight and camera buttons at the bottom, overlaid on the image. The original image should be adapted to a vertical composition that fits a phone screen. The phone is placed on a solid color background of the same color scheme."),
	{
		Key:            "colorPalette",
		TitleKey:       "transformations.effects.colorPalette.title",
		DescriptionKey: "transformations.effects.colorPalette.description",
		Prompt:         "Turn this image into a clean, hand-drawn line art sketch.",
		StepTwoPrompt:  "Color the line art using the colors from the second image.",
		Emoji:          "🎨",
		IsMultiImage:   true,
		IsTwoStep:      true,
	},
	{
		Key:            "videoGeneration",
		TitleKey:       "transformations.video.title",
		DescriptionKey: "transformations.video.description",
		Prompt:         models.CustomPrompt,
		Emoji:          "🎬",
		IsVideo:        true,
	},
	effect("isolate", "🎯", "Isolate the person in the masked area and generate a high-definition photo of them against a neutral background."),
	effect("screen3d", "📺", "For an image with a screen, add content that appears to be glasses-free 3D, popping out of the screen."),
	effect("makeup", "💄", "Analyze the makeup in this photo and suggest improvements by drawing with a red pen."),
	effect("background", "🪩", "Change the background to a Y2K aesthetic style."),
	effect("addIllustration", "🧑‍🎨", "Add a cute, cartoon-style illustrated couple into the real-world scene, sitting and talking."),
	{
		Key:      "category_effects",
		TitleKey: "transformations.categories.effects.title",
		Emoji:    "✨",
		Items: []models.Transformation{
			effect("pixelArt", "👾", "Redraw the image in a retro 8-bit pixel art style."),
			effect("watercolor", "🖌️", "Transform the image into a soft and vibrant watercolor painting."),
			effect("popArt", "🎨", "Reimagine the image in the style of Andy Warhol's pop art, with bold colors and screen-print effects."),
			effect("comicBook", "💥", "Convert the image into a classic comic book panel with halftones, bold outlines, and action text."),
			effect("claymation", "🗿", "Recreate the image as a charming stop-motion claymation scene."),
			effect("ukiyoE", "🌊", "Redraw the image in the style of a traditional Japanese Ukiyo-e woodblock print."),
			effect("stainedGlass", "🪟", "Transform the image into a vibrant stained glass window with dark lead lines."),
			effect("origami", "🦢", "Reconstruct the subject of the image using folded paper in an origami style."),
			effect("neonGlow", "💡", "Outline the subject in bright, glowing neon lights against a dark background."),
			effect("doodleArt", "✏️", "Overlay the image with playful, hand-drawn doodle-style illustrations."),
			effect("vintagePhoto", "📜", "Give the image an aged, sepia-toned vintage photograph look from the early 20th century."),
			effect("blueprintSketch", "📐", "Convert the image into a technical blueprint-style architectural drawing."),
			effect("glitchArt", "📉", "Apply a digital glitch effect with datamoshing, pixel sorting, and RGB shifts."),
			effect("doubleExposure", "🏞️", "Create a double exposure effect, blending the image with a nature scene like a forest or a mountain range."),
			effect("hologram", "🌐", "Project the subject as a futuristic, glowing blue hologram."),
			effect("lowPoly", "🔺", "Reconstruct the image using a low-polygon geometric mesh."),
			effect("charcoalSketch", "✍🏽", "Redraw the image as a dramatic, high-contrast charcoal sketch on textured paper."),
			effect("impressionism", "👨‍🎨", "Repaint the image in the style of an Impressionist masterpiece, with visible brushstrokes and a focus on light."),
			effect("cubism", "🧊", "Deconstruct and reassemble the subject in the abstract, geometric style of Cubism."),
			effect("steampunk", "⚙️", "Reimagine the subject with steampunk aesthetics, featuring gears, brass, and Victorian-era technology."),
			effect("fantasyArt", "🐉", "Transform the image into an epic fantasy-style painting, with magical elements and dramatic lighting."),
			effect("graffiti", "🎨", "Spray-paint the image as vibrant graffiti on a brick wall."),
			effect("minimalistLineArt", "〰️", "Reduce the image to a single, continuous, minimalist line drawing."),
			effect("storybook", "📖", "Redraw the image in the style of a whimsical children's storybook illustration."),
			effect("thermal", "🌡️", "Apply a thermal imaging effect with a heat map color palette."),
			effect("risograph", "📠", "Simulate a risograph print effect with grainy textures and limited, overlapping color layers."),
			effect("crossStitch", "🧵", "Convert the image into a textured, handmade cross-stitch pattern."),
			effect("tattoo", "🖋️", "Redesign the subject as a classic American traditional style tattoo."),
			effect("psychedelic", "🌀", "Apply a vibrant, swirling, psychedelic art style from the 1960s."),
			effect("gothic", "🏰", "Reimagine the scene with a dark, gothic art style, featuring dramatic shadows and architecture."),
			effect("tribal", "🗿", "Redraw the subject using patterns and motifs from traditional tribal art."),
			effect("dotPainting", "🎨", "Recreate the image using the dot painting technique of Aboriginal art."),
			effect("chalk", "🖍️", "Draw the image as a colorful chalk illustration on a sidewalk."),
			effect("sandArt", "🏜️", "Recreate the image as if it were made from colored sand."),
			effect("mosaic", "💠", "Transform the image into a mosaic made of small ceramic tiles."),
			effect("paperQuilling", "📜", "Reconstruct the subject using the art of paper quilling, with rolled and shaped strips of paper."),
			effect("woodCarving", "🪵", "Recreate the subject as a detailed wood carving."),
			effect("iceSculpture", "🧊", "Transform the subject into a translucent, detailed ice sculpture."),
			effect("bronzeStatue", "🗿", "Turn the subject into a weathered bronze statue on a pedestal."),
			effect("galaxy", "🌌", "Blend the image with a vibrant nebula and starry galaxy background."),
			effect("fire", "🔥", "Reimagine the subject as if it were formed from roaring flames."),
			effect("water", "💧", "Reimagine the subject as if it were formed from flowing, liquid water."),
			effect("smokeArt", "💨", "Create the subject from elegant, swirling wisps of smoke."),
			effect("vectorArt", "🎨", "Convert the photo into clean, scalable vector art with flat colors and sharp lines."),
			effect("infrared", "📸", "Simulate an infrared photo effect with surreal colors and glowing foliage."),
			effect("knitted", "🧶", "Recreate the image as a cozy, knitted wool pattern."),
			effect("etching", "✒️", "Redraw the image as a classic black and white etching or engraving."),
			effect("diorama", "📦", "Turn the scene into a miniature 3D diorama inside a box."),
			effect("cyberpunk", "🤖", "Transform the scene into a futuristic cyberpunk city."),
			effect("vanGogh", "🌌", "Reimagine the photo in the style of Van Gogh's 'Starry Night'."),
			effect("lineArt", "✍🏻", "Turn the image into a clean, hand-drawn line art sketch."),
			effect("paintingProcess", "🖼️", "Generate a 4-panel grid showing the artistic process of creating this image, from sketch to final render."),
			effect("markerSketch", "🖊️", "Redraw the image in the style of a Copic marker sketch, often used in design."),
		},
	},
}
